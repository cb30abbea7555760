package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carl-sl-li/lambda-no-secret/pkg/vault"
)

type fakeCostQuery struct {
	scope      string
	definition armcostmanagement.QueryDefinition
	rows       [][]any
	err        error
}

func (f *fakeCostQuery) Usage(ctx context.Context, scope string, parameters armcostmanagement.QueryDefinition, options *armcostmanagement.QueryClientUsageOptions) (armcostmanagement.QueryClientUsageResponse, error) {
	f.scope = scope
	f.definition = parameters
	if f.err != nil {
		return armcostmanagement.QueryClientUsageResponse{}, f.err
	}
	return armcostmanagement.QueryClientUsageResponse{
		QueryResult: armcostmanagement.QueryResult{
			Properties: &armcostmanagement.QueryProperties{Rows: f.rows},
		},
	}, nil
}

func newTestAzure(source *fakeSource, api *fakeCostQuery) *Azure {
	z := NewAzure(source, "azure/carlli/roles/lambda_role")
	z.newAPI = func(vault.AzureEnvironment, vault.AzureCredential) (costQueryAPI, error) {
		return api, nil
	}
	return z
}

func azureSource() *fakeSource {
	return &fakeSource{
		azCred: vault.AzureCredential{ClientID: "id", ClientSecret: "secret"},
		azEnv:  vault.AzureEnvironment{TenantID: "tenant", SubscriptionID: "sub-123"},
	}
}

func TestAzureLastMonthCost(t *testing.T) {
	api := &fakeCostQuery{rows: [][]any{{float64(88.105), "USD"}}}
	z := newTestAzure(azureSource(), api)

	got, err := z.LastMonthCost(context.Background(), testPeriod())
	require.NoError(t, err)
	assert.Equal(t, "88.10", got.StringFixed(2))

	assert.Equal(t, "/subscriptions/sub-123", api.scope)
	require.NotNil(t, api.definition.Type)
	assert.Equal(t, armcostmanagement.ExportTypeUsage, *api.definition.Type)
	assert.Equal(t, armcostmanagement.TimeframeTypeCustom, *api.definition.Timeframe)
	require.NotNil(t, api.definition.TimePeriod)
	assert.Equal(t, testPeriod().Start, *api.definition.TimePeriod.From)
	assert.Equal(t, testPeriod().End, *api.definition.TimePeriod.To)

	agg := api.definition.Dataset.Aggregation["totalCost"]
	require.NotNil(t, agg)
	assert.Equal(t, "Cost", *agg.Name)
	assert.Equal(t, armcostmanagement.FunctionTypeSum, *agg.Function)
}

func TestAzureLastMonthCostNoRows(t *testing.T) {
	z := newTestAzure(azureSource(), &fakeCostQuery{rows: nil})

	got, err := z.LastMonthCost(context.Background(), testPeriod())
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestAzureLastMonthCostQueryError(t *testing.T) {
	z := newTestAzure(azureSource(), &fakeCostQuery{err: errors.New("quota exceeded")})

	_, err := z.LastMonthCost(context.Background(), testPeriod())
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "Azure", qerr.Provider)
}

func TestAzureLastMonthCostCredentialError(t *testing.T) {
	source := azureSource()
	source.azureErr = &vault.CredentialError{Path: "azure/carlli/roles/lambda_role", Err: errors.New("expired")}
	z := newTestAzure(source, &fakeCostQuery{})

	_, err := z.LastMonthCost(context.Background(), testPeriod())
	var credErr *vault.CredentialError
	require.ErrorAs(t, err, &credErr)
}

func TestDecimalFromCell(t *testing.T) {
	tests := []struct {
		name    string
		cell    any
		want    string
		wantErr bool
	}{
		{name: "float", cell: float64(12.5), want: "12.5"},
		{name: "string", cell: "7.25", want: "7.25"},
		{name: "int", cell: int64(3), want: "3"},
		{name: "nil", cell: nil, want: "0"},
		{name: "bool", cell: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimalFromCell(tt.cell)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}
