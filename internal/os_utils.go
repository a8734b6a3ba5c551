package internal

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// SecretEnv names the environment variable holding the local encryption secret.
const SecretEnv = "CLOUDVIEW_SECRET"

// Keychain item the local encryption secret is stored under.
const (
	KeychainService = "cloudview"
	KeychainAccount = "master-key"
)

var (
	ErrKeychainUnsupported  = errors.New("keychain integration is only supported on macOS")
	ErrKeychainItemNotFound = errors.New("item not found in keychain")
)

// IsMacOS checks if the runtime OS is darwin
func IsMacOS() bool {
	return runtime.GOOS == "darwin"
}

// HomeDir returns the per-user state directory, ~/.cloudview.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".cloudview")
}
