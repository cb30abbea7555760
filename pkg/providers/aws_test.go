package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carl-sl-li/lambda-no-secret/pkg/billing"
	"github.com/carl-sl-li/lambda-no-secret/pkg/vault"
)

type fakeCostExplorer struct {
	in  *costexplorer.GetCostAndUsageInput
	out *costexplorer.GetCostAndUsageOutput
	err error
}

func (f *fakeCostExplorer) GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	f.in = params
	return f.out, f.err
}

func testPeriod() billing.Period {
	return billing.LastMonth(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
}

func newTestAWS(source *fakeSource, api *fakeCostExplorer) *AWS {
	a := NewAWS(source, "aws/roles/lambda_role", "ap-southeast-2")
	a.newAPI = func(vault.AWSCredential) costExplorerAPI { return api }
	return a
}

func TestAWSLastMonthCost(t *testing.T) {
	api := &fakeCostExplorer{
		out: &costexplorer.GetCostAndUsageOutput{
			ResultsByTime: []cetypes.ResultByTime{
				{Total: map[string]cetypes.MetricValue{
					"BlendedCost": {Amount: aws.String("123.4567"), Unit: aws.String("USD")},
				}},
			},
		},
	}
	a := newTestAWS(&fakeSource{}, api)

	got, err := a.LastMonthCost(context.Background(), testPeriod())
	require.NoError(t, err)
	assert.Equal(t, "123.46", got.StringFixed(2))

	// Query shape: exclusive end date, monthly granularity, usage only.
	require.NotNil(t, api.in)
	assert.Equal(t, "2025-05-01", *api.in.TimePeriod.Start)
	assert.Equal(t, "2025-06-01", *api.in.TimePeriod.End)
	assert.Equal(t, cetypes.GranularityMonthly, api.in.Granularity)
	assert.Equal(t, []string{"BlendedCost"}, api.in.Metrics)
	require.NotNil(t, api.in.Filter)
	assert.Equal(t, cetypes.DimensionRecordType, api.in.Filter.Dimensions.Key)
	assert.Equal(t, []string{"Usage"}, api.in.Filter.Dimensions.Values)
}

func TestAWSLastMonthCostEmptyResult(t *testing.T) {
	api := &fakeCostExplorer{out: &costexplorer.GetCostAndUsageOutput{}}
	a := newTestAWS(&fakeSource{}, api)

	got, err := a.LastMonthCost(context.Background(), testPeriod())
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestAWSLastMonthCostQueryError(t *testing.T) {
	api := &fakeCostExplorer{err: errors.New("throttled")}
	a := newTestAWS(&fakeSource{}, api)

	_, err := a.LastMonthCost(context.Background(), testPeriod())
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "AWS", qerr.Provider)
}

func TestAWSLastMonthCostCredentialError(t *testing.T) {
	source := &fakeSource{awsErr: &vault.CredentialError{Path: "aws/roles/lambda_role", Err: errors.New("denied")}}
	a := newTestAWS(source, &fakeCostExplorer{})

	_, err := a.LastMonthCost(context.Background(), testPeriod())
	var credErr *vault.CredentialError
	require.ErrorAs(t, err, &credErr)
}

func TestAWSLastMonthCostBadAmount(t *testing.T) {
	api := &fakeCostExplorer{
		out: &costexplorer.GetCostAndUsageOutput{
			ResultsByTime: []cetypes.ResultByTime{
				{Total: map[string]cetypes.MetricValue{
					"BlendedCost": {Amount: aws.String("not-a-number")},
				}},
			},
		},
	}
	a := newTestAWS(&fakeSource{}, api)

	_, err := a.LastMonthCost(context.Background(), testPeriod())
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
}
