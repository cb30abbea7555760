// Package vault wraps the HashiCorp Vault secrets broker: one AWS IAM login
// per run, then on-demand reads of short-lived per-provider credentials from
// the aws, gcp and azure secret engines.
package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	awsauth "github.com/hashicorp/vault/api/auth/aws"
)

// awsCredentialTTL bounds how long a leaked AWS credential stays usable.
const awsCredentialTTL = "900s"

// AWSCredential is a short-lived key issued by Vault's AWS secrets engine.
type AWSCredential struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// AzureCredential is a service-principal secret issued by Vault's Azure
// secrets engine.
type AzureCredential struct {
	ClientID     string
	ClientSecret string
}

// AzureEnvironment is the tenant/subscription configuration stored on the
// Azure secrets engine mount, read alongside the credential.
type AzureEnvironment struct {
	TenantID       string
	SubscriptionID string
}

// Config carries broker connection settings.
type Config struct {
	// Addr is the Vault server URL.
	Addr string
	// AuthRole optionally pins the AWS IAM login to a named Vault role.
	AuthRole string
	// Region is used to sign the IAM login request.
	Region string
	// Timeout bounds every request to the broker.
	Timeout time.Duration
}

// Client is a broker session. It is read-only after Authenticate and safe
// to share across concurrent credential fetches. It performs no retries;
// each call is independent and may be retried by the caller.
type Client struct {
	api      *api.Client
	authRole string
	region   string
}

// New builds an unauthenticated broker client.
func New(cfg Config) (*Client, error) {
	apiCfg := api.DefaultConfig()
	if cfg.Addr != "" {
		apiCfg.Address = cfg.Addr
	}
	apiCfg.Timeout = cfg.Timeout
	if apiCfg.Timeout == 0 {
		apiCfg.Timeout = 30 * time.Second
	}

	c, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}
	return &Client{api: c, authRole: cfg.AuthRole, region: cfg.Region}, nil
}

// Authenticate logs into Vault with the AWS IAM auth method, using the
// identity material from the process environment. On failure the run
// cannot continue: every later credential fetch needs this session.
func (c *Client) Authenticate(ctx context.Context) error {
	opts := []awsauth.LoginOption{awsauth.WithIAMAuth()}
	if c.authRole != "" {
		opts = append(opts, awsauth.WithRole(c.authRole))
	}
	if c.region != "" {
		opts = append(opts, awsauth.WithRegion(c.region))
	}

	method, err := awsauth.NewAWSAuth(opts...)
	if err != nil {
		return &AuthError{Err: err}
	}

	secret, err := c.api.Auth().Login(ctx, method)
	if err != nil {
		return &AuthError{Err: err}
	}
	if secret == nil || secret.Auth == nil {
		return &AuthError{Err: fmt.Errorf("no auth data in login response")}
	}
	return nil
}

// SplitPath separates a broker path into the secrets-engine mount and the
// role/roleset name. The last segment is the name; everything before the
// last two segments is the mount ("aws/roles/lambda_role" -> "aws",
// "gcp/carlli/roleset/lambda_role" -> "gcp/carlli").
func SplitPath(path string) (mount, name string, err error) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) < 3 {
		return "", "", fmt.Errorf("malformed broker path %q: want at least mount/kind/name", path)
	}
	return strings.Join(segs[:len(segs)-2], "/"), segs[len(segs)-1], nil
}

// AWSCredential generates a scoped AWS key at {mount}/creds/{name} with a
// 900 second TTL.
func (c *Client) AWSCredential(ctx context.Context, path string) (AWSCredential, error) {
	mount, name, err := SplitPath(path)
	if err != nil {
		return AWSCredential{}, &CredentialError{Path: path, Err: err}
	}

	secret, err := c.api.Logical().ReadWithDataWithContext(ctx,
		mount+"/creds/"+name,
		map[string][]string{"ttl": {awsCredentialTTL}},
	)
	if err != nil {
		return AWSCredential{}, &CredentialError{Path: path, Err: err}
	}

	accessKey, err := stringField(secret, "access_key")
	if err != nil {
		return AWSCredential{}, &CredentialError{Path: path, Err: err}
	}
	secretKey, err := stringField(secret, "secret_key")
	if err != nil {
		return AWSCredential{}, &CredentialError{Path: path, Err: err}
	}

	// The engine names the STS token security_token; older mounts used
	// session_token. Either may be absent for static IAM users.
	token, _ := optionalStringField(secret, "security_token")
	if token == "" {
		token, _ = optionalStringField(secret, "session_token")
	}

	return AWSCredential{
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		SessionToken:    token,
	}, nil
}

// GCPServiceAccountKey generates a service-account key at
// {mount}/roleset/{name}/key and returns the decoded key JSON.
func (c *Client) GCPServiceAccountKey(ctx context.Context, path string) ([]byte, error) {
	mount, name, err := SplitPath(path)
	if err != nil {
		return nil, &CredentialError{Path: path, Err: err}
	}

	secret, err := c.api.Logical().WriteWithContext(ctx, mount+"/roleset/"+name+"/key", nil)
	if err != nil {
		return nil, &CredentialError{Path: path, Err: err}
	}

	encoded, err := stringField(secret, "private_key_data")
	if err != nil {
		return nil, &CredentialError{Path: path, Err: err}
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &CredentialError{Path: path, Err: fmt.Errorf("decode private_key_data: %w", err)}
	}
	return key, nil
}

// AzureCredential generates a service-principal secret at
// {mount}/creds/{name}.
func (c *Client) AzureCredential(ctx context.Context, path string) (AzureCredential, error) {
	mount, name, err := SplitPath(path)
	if err != nil {
		return AzureCredential{}, &CredentialError{Path: path, Err: err}
	}

	secret, err := c.api.Logical().ReadWithContext(ctx, mount+"/creds/"+name)
	if err != nil {
		return AzureCredential{}, &CredentialError{Path: path, Err: err}
	}

	clientID, err := stringField(secret, "client_id")
	if err != nil {
		return AzureCredential{}, &CredentialError{Path: path, Err: err}
	}
	clientSecret, err := stringField(secret, "client_secret")
	if err != nil {
		return AzureCredential{}, &CredentialError{Path: path, Err: err}
	}

	return AzureCredential{ClientID: clientID, ClientSecret: clientSecret}, nil
}

// AzureEnvironment reads the tenant and subscription configured on the
// engine mount of path.
func (c *Client) AzureEnvironment(ctx context.Context, path string) (AzureEnvironment, error) {
	mount, _, err := SplitPath(path)
	if err != nil {
		return AzureEnvironment{}, &CredentialError{Path: path, Err: err}
	}

	secret, err := c.api.Logical().ReadWithContext(ctx, mount+"/config")
	if err != nil {
		return AzureEnvironment{}, &CredentialError{Path: path, Err: err}
	}

	tenantID, err := stringField(secret, "tenant_id")
	if err != nil {
		return AzureEnvironment{}, &CredentialError{Path: path, Err: err}
	}
	subscriptionID, err := stringField(secret, "subscription_id")
	if err != nil {
		return AzureEnvironment{}, &CredentialError{Path: path, Err: err}
	}

	return AzureEnvironment{TenantID: tenantID, SubscriptionID: subscriptionID}, nil
}

func stringField(secret *api.Secret, key string) (string, error) {
	v, err := optionalStringField(secret, key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("missing %s in secret response", key)
	}
	return v, nil
}

func optionalStringField(secret *api.Secret, key string) (string, error) {
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("empty secret response")
	}
	v, ok := secret.Data[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("unexpected type %T for %s", v, key)
	}
	return s, nil
}
