package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/shopspring/decimal"

	"github.com/carl-sl-li/lambda-no-secret/pkg/billing"
	"github.com/carl-sl-li/lambda-no-secret/pkg/vault"
)

// costQueryAPI is the slice of the Cost Management query client the
// adapter uses.
type costQueryAPI interface {
	Usage(ctx context.Context, scope string, parameters armcostmanagement.QueryDefinition, options *armcostmanagement.QueryClientUsageOptions) (armcostmanagement.QueryClientUsageResponse, error)
}

// Azure runs a usage-type cost query with a Sum aggregation over the
// subscription scope taken from the broker's engine configuration.
type Azure struct {
	creds  CredentialSource
	path   string
	newAPI func(env vault.AzureEnvironment, cred vault.AzureCredential) (costQueryAPI, error)
}

// NewAzure creates the Azure billing adapter. path is the broker path of
// the Azure secrets-engine role.
func NewAzure(creds CredentialSource, path string) *Azure {
	z := &Azure{creds: creds, path: path}
	z.newAPI = queryClient
	return z
}

func (z *Azure) Name() string { return "Azure" }

// queryClient authenticates with only the broker-issued service principal.
func queryClient(env vault.AzureEnvironment, cred vault.AzureCredential) (costQueryAPI, error) {
	identity, err := azidentity.NewClientSecretCredential(env.TenantID, cred.ClientID, cred.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("client secret credential: %w", err)
	}
	client, err := armcostmanagement.NewQueryClient(identity, nil)
	if err != nil {
		return nil, fmt.Errorf("cost management client: %w", err)
	}
	return client, nil
}

// LastMonthCost issues a Custom-timeframe usage query summing Cost over
// the whole period. A response with no rows is a zero bill.
func (z *Azure) LastMonthCost(ctx context.Context, period billing.Period) (decimal.Decimal, error) {
	env, err := z.creds.AzureEnvironment(ctx, z.path)
	if err != nil {
		return decimal.Zero, err
	}
	cred, err := z.creds.AzureCredential(ctx, z.path)
	if err != nil {
		return decimal.Zero, err
	}

	api, err := z.newAPI(env, cred)
	if err != nil {
		return decimal.Zero, &QueryError{Provider: z.Name(), Err: err}
	}

	definition := armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeUsage),
		Timeframe: to.Ptr(armcostmanagement.TimeframeTypeCustom),
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: to.Ptr(period.Start),
			To:   to.Ptr(period.End),
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityType("None")),
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
		},
	}

	scope := "/subscriptions/" + env.SubscriptionID
	resp, err := api.Usage(ctx, scope, definition, nil)
	if err != nil {
		return decimal.Zero, &QueryError{Provider: z.Name(), Err: err}
	}

	if resp.Properties == nil || len(resp.Properties.Rows) == 0 || len(resp.Properties.Rows[0]) == 0 {
		return decimal.Zero, nil
	}

	total, err := decimalFromCell(resp.Properties.Rows[0][0])
	if err != nil {
		return decimal.Zero, &QueryError{Provider: z.Name(), Err: err}
	}
	return billing.RoundAmount(total), nil
}

// decimalFromCell converts the loosely typed aggregation cell returned by
// the query API into an exact decimal.
func decimalFromCell(v any) (decimal.Decimal, error) {
	switch cell := v.(type) {
	case float64:
		return decimal.NewFromFloat(cell), nil
	case json.Number:
		return decimal.NewFromString(cell.String())
	case string:
		return decimal.NewFromString(cell)
	case int64:
		return decimal.NewFromInt(cell), nil
	case nil:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected cost cell type %T", v)
	}
}
