package providers

import (
	"context"
	"fmt"
	"regexp"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/carl-sl-li/lambda-no-secret/pkg/billing"
)

// billingTablePattern admits project.dataset.table identifiers only. The
// table name cannot be a query parameter in BigQuery, so it is validated
// before interpolation.
var billingTablePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+\.[a-zA-Z0-9_]+\.[a-zA-Z0-9_]+$`)

// ValidateBillingTable checks that a billing-export table identifier is a
// plain project.dataset.table name.
func ValidateBillingTable(table string) error {
	if !billingTablePattern.MatchString(table) {
		return fmt.Errorf("invalid billing export table %q: want project.dataset.table", table)
	}
	return nil
}

// GCP sums the cost column of a BigQuery billing-export table for rows
// whose usage start falls inside the period. The export table comes from
// configuration so the same binary works against sample and production
// datasets.
type GCP struct {
	creds CredentialSource
	path  string
	table string
}

// NewGCP creates the GCP billing adapter. path is the broker path of the
// GCP secrets-engine roleset; table is the billing-export table to query.
func NewGCP(creds CredentialSource, path, table string) *GCP {
	return &GCP{creds: creds, path: path, table: table}
}

func (g *GCP) Name() string { return "GCP" }

// LastMonthCost resolves the service account's project, then aggregates
// the export table over [period.Start, period.End).
func (g *GCP) LastMonthCost(ctx context.Context, period billing.Period) (decimal.Decimal, error) {
	if err := ValidateBillingTable(g.table); err != nil {
		return decimal.Zero, &QueryError{Provider: g.Name(), Err: err}
	}

	key, err := g.creds.GCPServiceAccountKey(ctx, g.path)
	if err != nil {
		return decimal.Zero, err
	}

	projectID, err := g.resolveProject(ctx, key)
	if err != nil {
		return decimal.Zero, &QueryError{Provider: g.Name(), Err: err}
	}

	client, err := bigquery.NewClient(ctx, projectID, option.WithCredentialsJSON(key))
	if err != nil {
		return decimal.Zero, &QueryError{Provider: g.Name(), Err: fmt.Errorf("bigquery client: %w", err)}
	}
	defer client.Close()

	q := client.Query(fmt.Sprintf(
		"SELECT SUM(cost) AS total_cost FROM `%s` "+
			"WHERE usage_start_time >= @period_start AND usage_start_time < @period_end",
		g.table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "period_start", Value: period.Start},
		{Name: "period_end", Value: period.End},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return decimal.Zero, &QueryError{Provider: g.Name(), Err: err}
	}

	var row struct {
		TotalCost bigquery.NullFloat64 `bigquery:"total_cost"`
	}
	switch err := it.Next(&row); {
	case err == iterator.Done:
		return decimal.Zero, nil
	case err != nil:
		return decimal.Zero, &QueryError{Provider: g.Name(), Err: err}
	}

	// SUM over zero rows yields a NULL total, which is a zero bill.
	if !row.TotalCost.Valid {
		return decimal.Zero, nil
	}
	return billing.RoundAmount(decimal.NewFromFloat(row.TotalCost.Float64)), nil
}

// resolveProject returns the first project visible to the issued service
// account, mirroring how the broker scopes a roleset to a single project.
func (g *GCP) resolveProject(ctx context.Context, key []byte) (string, error) {
	svc, err := cloudresourcemanager.NewService(ctx, option.WithCredentialsJSON(key))
	if err != nil {
		return "", fmt.Errorf("resource manager client: %w", err)
	}

	resp, err := svc.Projects.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list projects: %w", err)
	}
	if len(resp.Projects) == 0 {
		return "", fmt.Errorf("no projects visible to the issued service account")
	}
	return resp.Projects[0].ProjectId, nil
}
