package auth

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	store := NewMockStore()
	manager := NewManagerWithStores(store)

	cred := &Credential{
		Label: "work",
		Token: "token-12345",
	}
	require.NoError(t, manager.Store(cred))

	retrieved, err := manager.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "work", retrieved.Label)
	assert.Equal(t, "token-12345", retrieved.Token)
	assert.False(t, retrieved.LastModified.IsZero())
}

func TestManagerDefaultsEmptyLabel(t *testing.T) {
	store := NewMockStore()
	manager := NewManagerWithStores(store)

	require.NoError(t, manager.Store(&Credential{Token: "tok"}))

	retrieved, err := manager.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLabel, retrieved.Label)
}

func TestManagerRejectsEmptyToken(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore())
	assert.Error(t, manager.Store(&Credential{Label: "x"}))
	assert.Error(t, manager.Store(nil))
}

func TestManagerRetrieveMissing(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore())
	_, err := manager.Retrieve("ghost")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrCredentialsNotFound))
}

func TestManagerFallsBackAcrossStores(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = fmt.Errorf("keychain locked")
	broken.RetrieveError = fmt.Errorf("keychain locked")

	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	require.NoError(t, manager.Store(&Credential{Label: "a", Token: "tok"}))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())

	retrieved, err := manager.Retrieve("a")
	require.NoError(t, err)
	assert.Equal(t, "tok", retrieved.Token)
}

func TestManagerDelete(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	manager := NewManagerWithStores(first, second)

	require.NoError(t, first.Store(&Credential{Label: "a", Token: "t1"}))
	require.NoError(t, second.Store(&Credential{Label: "a", Token: "t2"}))

	require.NoError(t, manager.Delete("a"))
	assert.False(t, first.Exists("a"))
	assert.False(t, second.Exists("a"))

	err := manager.Delete("a")
	assert.True(t, stderrors.Is(err, ErrCredentialsNotFound))
}

func TestManagerListDeduplicatesByLabel(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	manager := NewManagerWithStores(first, second)

	require.NoError(t, first.Store(&Credential{Label: "a", Token: "from-first"}))
	require.NoError(t, second.Store(&Credential{Label: "a", Token: "from-second"}))
	require.NoError(t, second.Store(&Credential{Label: "b", Token: "only-second"}))

	creds, err := manager.List()
	require.NoError(t, err)
	require.Len(t, creds, 2)

	byLabel := map[string]string{}
	for _, cred := range creds {
		byLabel[cred.Label] = cred.Token
	}
	// the earlier store wins for duplicated labels
	assert.Equal(t, "from-first", byLabel["a"])
	assert.Equal(t, "only-second", byLabel["b"])
}

func TestEnvironmentStoreIsReadOnly(t *testing.T) {
	t.Setenv("TRUTHKIT_TOKEN", "env-token")

	store := NewEnvironmentStore()
	assert.True(t, store.Exists(DefaultLabel))

	cred, err := store.Retrieve(DefaultLabel)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cred.Token)

	assert.Error(t, store.Store(&Credential{Label: "x", Token: "y"}))
	assert.Error(t, store.Delete(DefaultLabel))
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	t.Setenv("TRUTHKIT_PASSPHRASE", "test-passphrase")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	cred := &Credential{
		Label:        "main",
		Token:        "secret-token-value",
		LastModified: time.Now(),
	}
	require.NoError(t, store.Store(cred))

	// a fresh store instance decrypts what the first one wrote
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	retrieved, err := reopened.Retrieve("main")
	require.NoError(t, err)
	assert.Equal(t, "secret-token-value", retrieved.Token)

	creds, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, creds, 1)

	require.NoError(t, reopened.Delete("main"))
	assert.False(t, reopened.Exists("main"))
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv("TRUTHKIT_PASSPHRASE", "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credential{Label: "a", Token: "tok"}))

	t.Setenv("TRUTHKIT_PASSPHRASE", "second")
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = reopened.Retrieve("a")
	assert.Error(t, err)
}
