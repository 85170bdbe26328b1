package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Credential is a stored bearer token for one account label. The label is
// local bookkeeping; the platform only ever sees the token.
type Credential struct {
	Label        string    `json:"label"`
	Token        string    `json:"token"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves a credential under its label
	Store(cred *Credential) error

	// Retrieve gets the credential for a label
	Retrieve(label string) (*Credential, error)

	// List returns all stored credentials
	List() ([]*Credential, error)

	// Delete removes the credential for a label
	Delete(label string) error

	// Exists checks if a credential exists for a label
	Exists(label string) bool
}

var (
	// ErrCredentialsNotFound is returned when no credential exists for a label
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrInvalidCredentials is returned when a credential is malformed
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreUnavailable is returned when a store cannot perform the operation
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// DefaultLabel is used when the caller doesn't name an account.
const DefaultLabel = "default"

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with the available backends, in
// preference order: system keychain, encrypted file, environment.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager with explicit backends.
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves a credential using the first store that accepts it.
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Token == "" {
		return errors.New("bearer token is required")
	}
	if cred.Label == "" {
		cred.Label = DefaultLabel
	}
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(cred); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets the credential from the first store that has it.
func (m *Manager) Retrieve(label string) (*Credential, error) {
	if label == "" {
		label = DefaultLabel
	}
	for _, store := range m.stores {
		if cred, err := store.Retrieve(label); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w for account: %s", ErrCredentialsNotFound, label)
}

// Delete removes the credential from every store that holds it.
func (m *Manager) Delete(label string) error {
	if label == "" {
		label = DefaultLabel
	}
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(label); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return ErrCredentialsNotFound
	}
	return nil
}

// List returns the credentials from all stores, first hit per label wins.
func (m *Manager) List() ([]*Credential, error) {
	byLabel := make(map[string]*Credential)
	var order []string
	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if _, dup := byLabel[cred.Label]; !dup {
				byLabel[cred.Label] = cred
				order = append(order, cred.Label)
			}
		}
	}

	out := make([]*Credential, 0, len(order))
	for _, label := range order {
		out = append(out, byLabel[label])
	}
	return out, nil
}

// getConfigDir returns the truthkit config directory, creating it if needed.
func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, ".config", "truthkit")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}
