package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using the TRUTHKIT_TOKEN
// environment variable. Read-only; useful for CI and one-off scripts.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets the bearer token from the environment
func (e *EnvironmentStore) Retrieve(label string) (*Credential, error) {
	token := os.Getenv("TRUTHKIT_TOKEN")
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if label == "" {
		label = DefaultLabel
	}

	return &Credential{
		Label:        label,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

// List returns a single credential if the environment variable is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(label string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment credential exists
func (e *EnvironmentStore) Exists(label string) bool {
	return os.Getenv("TRUTHKIT_TOKEN") != ""
}
