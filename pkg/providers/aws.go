package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/shopspring/decimal"

	"github.com/carl-sl-li/lambda-no-secret/pkg/billing"
	"github.com/carl-sl-li/lambda-no-secret/pkg/vault"
)

const blendedCost = "BlendedCost"

// costExplorerAPI is the slice of the Cost Explorer client the adapter uses.
type costExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// AWS queries the Cost Explorer API for last month's usage-only spend.
type AWS struct {
	creds  CredentialSource
	path   string
	region string
	newAPI func(vault.AWSCredential) costExplorerAPI
}

// NewAWS creates the AWS billing adapter. path is the broker path of the
// AWS secrets-engine role to assume for the query.
func NewAWS(creds CredentialSource, path, region string) *AWS {
	a := &AWS{creds: creds, path: path, region: region}
	a.newAPI = a.costExplorerClient
	return a
}

func (a *AWS) Name() string { return "AWS" }

// costExplorerClient builds a Cost Explorer client from only the broker
// issued credential. The default credential chain is never consulted, so
// a leak is bounded to one provider and one short TTL window.
func (a *AWS) costExplorerClient(cred vault.AWSCredential) costExplorerAPI {
	cfg := aws.Config{
		Region: a.region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cred.AccessKeyID, cred.SecretAccessKey, cred.SessionToken),
	}
	return costexplorer.NewFromConfig(cfg)
}

// LastMonthCost sums the BlendedCost metric over the period at monthly
// granularity, filtered to Usage record types only.
func (a *AWS) LastMonthCost(ctx context.Context, period billing.Period) (decimal.Decimal, error) {
	cred, err := a.creds.AWSCredential(ctx, a.path)
	if err != nil {
		return decimal.Zero, err
	}

	out, err := a.newAPI(cred).GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(period.StartDate()),
			End:   aws.String(period.EndDate()),
		},
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{blendedCost},
		Filter: &cetypes.Expression{
			Dimensions: &cetypes.DimensionValues{
				Key:    cetypes.DimensionRecordType,
				Values: []string{"Usage"},
			},
		},
	})
	if err != nil {
		return decimal.Zero, &QueryError{Provider: a.Name(), Err: err}
	}

	// No result periods means no matching usage rows: a valid zero bill.
	total := decimal.Zero
	for _, rbt := range out.ResultsByTime {
		metric, ok := rbt.Total[blendedCost]
		if !ok || metric.Amount == nil {
			continue
		}
		amount, err := decimal.NewFromString(*metric.Amount)
		if err != nil {
			return decimal.Zero, &QueryError{
				Provider: a.Name(),
				Err:      fmt.Errorf("parse amount %q: %w", *metric.Amount, err),
			}
		}
		total = total.Add(amount)
	}

	return billing.RoundAmount(total), nil
}
