package session

import (
	"errors"
	"sync"

	"github.com/chukul/cloudview/internal"
)

// KeychainAccount is the keychain account the token is stored under.
const KeychainAccount = "session-" + TokenKey

// KeychainStore keeps the token in the macOS keychain. On other platforms every
// write fails with internal.ErrKeychainUnsupported and Get reports no token.
type KeychainStore struct {
	mu sync.Mutex
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{}
}

func (k *KeychainStore) Set(token string) error {
	if token == "" {
		return ErrNoToken
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return internal.SetKeychainItem(KeychainAccount, token)
}

func (k *KeychainStore) Get() (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	token, err := internal.GetKeychainItem(KeychainAccount)
	if err != nil {
		return "", false
	}
	return token, token != ""
}

func (k *KeychainStore) Clear() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	err := internal.DeleteKeychainItem(KeychainAccount)
	if errors.Is(err, internal.ErrKeychainItemNotFound) {
		return nil
	}
	return err
}
