package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "truthkit"
	keyringPrefix  = "account_"
	keyringIndex   = "account_index"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Test if keyring is available
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves a credential to the system keychain
func (k *KeyringStore) Store(cred *Credential) error {
	if cred == nil || cred.Label == "" || cred.Token == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+cred.Label, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return k.addToIndex(cred.Label)
}

// Retrieve gets a credential from the system keychain
func (k *KeyringStore) Retrieve(label string) (*Credential, error) {
	if label == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+label)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}

	return &cred, nil
}

// List returns all credentials recorded in the keyring index
func (k *KeyringStore) List() ([]*Credential, error) {
	labels, err := k.readIndex()
	if err != nil {
		return nil, err
	}

	var creds []*Credential
	for _, label := range labels {
		if cred, err := k.Retrieve(label); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// Delete removes a credential from the system keychain
func (k *KeyringStore) Delete(label string) error {
	if label == "" {
		return ErrInvalidCredentials
	}

	if err := keyring.Delete(keyringService, keyringPrefix+label); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return k.removeFromIndex(label)
}

// Exists checks if a credential exists for the label
func (k *KeyringStore) Exists(label string) bool {
	cred, err := k.Retrieve(label)
	return err == nil && cred != nil
}

// The keyring has no enumeration API, so labels are tracked in a separate
// index entry.

func (k *KeyringStore) readIndex() ([]string, error) {
	data, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}
	if data == "" {
		return nil, nil
	}
	return strings.Split(data, "\n"), nil
}

func (k *KeyringStore) addToIndex(label string) error {
	labels, err := k.readIndex()
	if err != nil {
		return err
	}
	for _, l := range labels {
		if l == label {
			return nil
		}
	}
	labels = append(labels, label)
	return keyring.Set(keyringService, keyringIndex, strings.Join(labels, "\n"))
}

func (k *KeyringStore) removeFromIndex(label string) error {
	labels, err := k.readIndex()
	if err != nil {
		return err
	}
	kept := labels[:0]
	for _, l := range labels {
		if l != label {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return keyring.Delete(keyringService, keyringIndex)
	}
	return keyring.Set(keyringService, keyringIndex, strings.Join(kept, "\n"))
}
