//go:build darwin

package internal

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/keybase/go-keychain"
)

// GetSecret retrieves the encryption secret from one of three sources (in priority order):
// 1. Explicit flag/argument (passed in)
// 2. Environment variable (CLOUDVIEW_SECRET)
// 3. System Keychain
func GetSecret(explicitSecret string) (string, error) {
	if explicitSecret != "" {
		return explicitSecret, nil
	}

	if envSecret := os.Getenv(SecretEnv); envSecret != "" {
		return envSecret, nil
	}

	secret, err := GetKeychainItem(KeychainAccount)
	if err == nil && secret != "" {
		return secret, nil
	}

	return "", fmt.Errorf("no secret found")
}

// SetupKeychain generates a new random secret and stores it in the keychain.
func SetupKeychain() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(key)

	if err := SetKeychainItem(KeychainAccount, secret); err != nil {
		return "", err
	}
	return secret, nil
}

// SetKeychainItem replaces the generic password stored under account.
func SetKeychainItem(account, value string) error {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(KeychainService)
	item.SetAccount(account)
	item.SetLabel("cloudview " + account)
	item.SetData([]byte(value))
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlocked)

	_ = DeleteKeychainItem(account)

	if err := keychain.AddItem(item); err != nil {
		return fmt.Errorf("failed to save to keychain: %w", err)
	}
	return nil
}

// GetKeychainItem reads the generic password stored under account.
func GetKeychainItem(account string) (string, error) {
	query := keychain.NewItem()
	query.SetSecClass(keychain.SecClassGenericPassword)
	query.SetService(KeychainService)
	query.SetAccount(account)
	query.SetMatchLimit(keychain.MatchLimitOne)
	query.SetReturnData(true)

	results, err := keychain.QueryItem(query)
	if err != nil {
		return "", err
	} else if len(results) != 1 {
		return "", ErrKeychainItemNotFound
	}

	return string(results[0].Data), nil
}

// DeleteKeychainItem removes the item stored under account.
func DeleteKeychainItem(account string) error {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(KeychainService)
	item.SetAccount(account)
	err := keychain.DeleteItem(item)
	if err == keychain.ErrorItemNotFound {
		return nil
	}
	return err
}
