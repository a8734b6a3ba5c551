//go:build !darwin

package internal

import (
	"fmt"
	"os"
)

// GetSecret stub for non-macOS
func GetSecret(explicitSecret string) (string, error) {
	if explicitSecret != "" {
		return explicitSecret, nil
	}
	if envSecret := os.Getenv(SecretEnv); envSecret != "" {
		return envSecret, nil
	}
	return "", fmt.Errorf("no secret found and keychain is only supported on macOS")
}

// SetupKeychain stub for non-macOS
func SetupKeychain() (string, error) {
	return "", ErrKeychainUnsupported
}

func SetKeychainItem(account, value string) error {
	return ErrKeychainUnsupported
}

func GetKeychainItem(account string) (string, error) {
	return "", ErrKeychainUnsupported
}

func DeleteKeychainItem(account string) error {
	return ErrKeychainUnsupported
}
