package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/chukul/cloudview/internal"
)

// FileStore keeps the token in a small JSON document on disk.
// With a secret the token is AES-GCM encrypted and stored base64-encoded.
type FileStore struct {
	mu     sync.Mutex
	path   string
	secret []byte
	logger *slog.Logger
}

type fileDocument struct {
	Token     string `json:"token"`
	Encrypted bool   `json:"encrypted,omitempty"`
}

// NewFileStore returns a store backed by path. An empty secret stores the token in plain text.
func NewFileStore(path, secret string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	fs := &FileStore{path: path, logger: logger}
	if secret != "" {
		fs.secret = []byte(secret)
	}
	return fs
}

// Path is the location of the session file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Set(token string) error {
	if token == "" {
		return ErrNoToken
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc := fileDocument{Token: token}
	if f.secret != nil {
		enc, err := internal.Encrypt([]byte(token), f.secret)
		if err != nil {
			return fmt.Errorf("failed to encrypt token: %w", err)
		}
		doc.Token = base64.StdEncoding.EncodeToString(enc)
		doc.Encrypted = true
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	// write then rename so a crash never leaves a truncated file
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Get reports no token when the file is missing, corrupt or cannot be decrypted.
func (f *FileStore) Get() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	token, err := f.read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("ignoring unreadable session file", "path", f.path, "error", err)
		}
		return "", false
	}
	return token, token != ""
}

func (f *FileStore) read() (string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}

	var doc fileDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return "", fmt.Errorf("failed to parse session: %w", err)
	}

	if !doc.Encrypted {
		return doc.Token, nil
	}
	if f.secret == nil {
		return "", errors.New("session is encrypted but no secret is configured")
	}

	raw, err := base64.StdEncoding.DecodeString(doc.Token)
	if err != nil {
		return "", fmt.Errorf("failed to decode session: %w", err)
	}
	plain, err := internal.Decrypt(raw, f.secret)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt session: %w", err)
	}
	return string(plain), nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
