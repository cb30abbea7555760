package providers

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carl-sl-li/lambda-no-secret/pkg/billing"
	"github.com/carl-sl-li/lambda-no-secret/pkg/vault"
)

// Provider is the core interface for cloud billing adapters.
type Provider interface {
	// Name returns the provider label used in reports (e.g., "AWS", "GCP").
	Name() string

	// LastMonthCost fetches this provider's scoped credential from the
	// broker, queries usage-only spend for the period, and returns the
	// total rounded to two decimal places. An empty result set is zero
	// cost, not an error.
	LastMonthCost(ctx context.Context, period billing.Period) (decimal.Decimal, error)
}

// CredentialSource issues short-lived per-provider credentials. Satisfied
// by *vault.Client; implementations must be safe for concurrent use.
type CredentialSource interface {
	AWSCredential(ctx context.Context, path string) (vault.AWSCredential, error)
	GCPServiceAccountKey(ctx context.Context, path string) ([]byte, error)
	AzureCredential(ctx context.Context, path string) (vault.AzureCredential, error)
	AzureEnvironment(ctx context.Context, path string) (vault.AzureEnvironment, error)
}

// QueryError reports a failed billing API query. It is scoped to one
// provider and never aborts the run.
type QueryError struct {
	Provider string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s billing query: %v", e.Provider, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
