package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecurityMethod defines how the backend auth token is stored on disk.
type SecurityMethod string

const (
	SecurityPlainText SecurityMethod = "plaintext"
	SecuritySSHKey    SecurityMethod = "ssh_key"
)

const tokenFileName = "backend_token"

// CredentialStore manages the backend auth token, either plaintext or
// encrypted with an SSH-key-derived AES key.
type CredentialStore struct {
	method     SecurityMethod
	token      string
	encManager *EncryptionManager
}

// NewCredentialStore creates a credential store for the given method.
// sshKeyPath is only used with SecuritySSHKey.
func NewCredentialStore(method SecurityMethod, sshKeyPath string) *CredentialStore {
	encMethod := EncryptionNone
	if method == SecuritySSHKey {
		encMethod = EncryptionSSHKey
	}
	return &CredentialStore{
		method:     method,
		encManager: NewEncryptionManager(encMethod, sshKeyPath),
	}
}

// Load reads the token file from the data directory. A missing file is not
// an error; the token is simply empty (the backend may not require one).
func (c *CredentialStore) Load(dataDir string) error {
	if err := c.encManager.Initialize(); err != nil {
		return err
	}

	path := filepath.Join(dataDir, tokenFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	plain, err := c.encManager.Decrypt(data)
	if err != nil {
		return fmt.Errorf("failed to decrypt token: %w", err)
	}
	c.token = strings.TrimSpace(string(plain))
	return nil
}

// Save writes the token file to the data directory.
func (c *CredentialStore) Save(dataDir string) error {
	if err := c.encManager.Initialize(); err != nil {
		return err
	}

	data, err := c.encManager.Encrypt([]byte(c.token))
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	path := filepath.Join(dataDir, tokenFileName)
	// 0600 - the token grants access to the user's conversations
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Token returns the loaded backend auth token, or "" when none is stored.
// The LOOM_BACKEND_TOKEN env var overrides the stored value.
func (c *CredentialStore) Token() string {
	if tok := os.Getenv("LOOM_BACKEND_TOKEN"); tok != "" {
		return tok
	}
	return c.token
}

// SetToken replaces the in-memory token; Save persists it.
func (c *CredentialStore) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}
