package providers

import (
	"context"

	"github.com/carl-sl-li/lambda-no-secret/pkg/vault"
)

// fakeSource hands out canned credentials, or a per-provider error.
type fakeSource struct {
	awsErr   error
	gcpErr   error
	azureErr error

	awsCred  vault.AWSCredential
	gcpKey   []byte
	azCred   vault.AzureCredential
	azEnv    vault.AzureEnvironment
	awsCalls int
}

func (f *fakeSource) AWSCredential(ctx context.Context, path string) (vault.AWSCredential, error) {
	f.awsCalls++
	if f.awsErr != nil {
		return vault.AWSCredential{}, f.awsErr
	}
	return f.awsCred, nil
}

func (f *fakeSource) GCPServiceAccountKey(ctx context.Context, path string) ([]byte, error) {
	if f.gcpErr != nil {
		return nil, f.gcpErr
	}
	return f.gcpKey, nil
}

func (f *fakeSource) AzureCredential(ctx context.Context, path string) (vault.AzureCredential, error) {
	if f.azureErr != nil {
		return vault.AzureCredential{}, f.azureErr
	}
	return f.azCred, nil
}

func (f *fakeSource) AzureEnvironment(ctx context.Context, path string) (vault.AzureEnvironment, error) {
	if f.azureErr != nil {
		return vault.AzureEnvironment{}, f.azureErr
	}
	return f.azEnv, nil
}
