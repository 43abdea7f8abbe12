package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "bnncache"
	tokenKey    = "github-token"

	// EnvToken overrides any stored token when set
	EnvToken = "BNNCACHE_GITHUB_TOKEN"
)

// Manager handles GitHub token storage and retrieval
type Manager struct {
	configDir      string
	storage        StorageBackend
	storageWarning string
}

// ManagerOptions configures manager creation
type ManagerOptions struct {
	// ForceEncryptedFile skips keyring detection, used in tests
	ForceEncryptedFile bool
}

// NewManager creates an auth manager with automatic backend selection
func NewManager(configDir string) (*Manager, error) {
	return NewManagerWithOptions(configDir, ManagerOptions{})
}

// NewManagerWithOptions creates an auth manager with explicit options
func NewManagerWithOptions(configDir string, opts ManagerOptions) (*Manager, error) {
	m := &Manager{configDir: configDir}

	if !opts.ForceEncryptedFile && checkKeyringAvailable() {
		m.storage = NewKeyringStorage(serviceName)
		return m, nil
	}

	storage, err := NewEncryptedFileStorage(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}
	m.storage = storage
	if !opts.ForceEncryptedFile {
		m.storageWarning = "system keyring unavailable, using encrypted file storage"
	}
	return m, nil
}

// checkKeyringAvailable probes the system keyring with a throwaway entry
func checkKeyringAvailable() bool {
	probe := "bnncache-keyring-probe"
	if err := keyring.Set(serviceName, probe, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(serviceName, probe)
	return true
}

// SaveToken stores the GitHub token
func (m *Manager) SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	return m.storage.Save(tokenKey, []byte(token))
}

// LoadToken returns the configured GitHub token. The environment
// variable takes precedence over stored credentials. An empty string
// with nil error means no token is configured.
func (m *Manager) LoadToken() (string, error) {
	if env := strings.TrimSpace(os.Getenv(EnvToken)); env != "" {
		return env, nil
	}

	data, err := m.storage.Load(tokenKey)
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(data)), nil
}

// DeleteToken removes the stored GitHub token
func (m *Manager) DeleteToken() error {
	return m.storage.Delete(tokenKey)
}

// HasToken reports whether a token is available from any source
func (m *Manager) HasToken() bool {
	token, _ := m.LoadToken()
	return token != ""
}

// StorageName identifies the active storage backend
func (m *Manager) StorageName() string {
	return m.storage.Name()
}

// StorageWarning returns a non-empty message when the manager fell
// back from the preferred backend
func (m *Manager) StorageWarning() string {
	return m.storageWarning
}
