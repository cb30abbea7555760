package vault

import "fmt"

// AuthError reports a failed login to the secrets broker. It is the one
// fatal error of a run: without a session no scoped credential can be
// issued afterwards.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("vault: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// CredentialError reports a failed credential read for a single broker
// path. It is scoped to the provider being fetched, not to the run.
type CredentialError struct {
	Path string
	Err  error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("vault: fetch credential %s: %v", e.Path, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }
