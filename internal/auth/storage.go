package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

// StorageBackend defines the interface for token storage
type StorageBackend interface {
	Save(key string, data []byte) error
	Load(key string) ([]byte, error)
	Delete(key string) error
	Name() string
}

// KeyringStorage uses the system keyring for token storage
type KeyringStorage struct {
	serviceName string
}

// NewKeyringStorage creates a keyring storage backend
func NewKeyringStorage(serviceName string) *KeyringStorage {
	return &KeyringStorage{serviceName: serviceName}
}

func (s *KeyringStorage) Save(key string, data []byte) error {
	return keyring.Set(s.serviceName, key, string(data))
}

func (s *KeyringStorage) Load(key string) ([]byte, error) {
	value, err := keyring.Get(s.serviceName, key)
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (s *KeyringStorage) Delete(key string) error {
	return keyring.Delete(s.serviceName, key)
}

func (s *KeyringStorage) Name() string {
	return "system-keyring"
}

// EncryptedFileStorage stores tokens in AES-GCM encrypted files under
// the config directory; used when no system keyring is available
type EncryptedFileStorage struct {
	baseDir string
	key     []byte
}

// NewEncryptedFileStorage creates an encrypted file storage backend
func NewEncryptedFileStorage(baseDir string) (*EncryptedFileStorage, error) {
	key, err := getOrCreateEncryptionKey(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get encryption key: %w", err)
	}

	return &EncryptedFileStorage{
		baseDir: baseDir,
		key:     key,
	}, nil
}

func (s *EncryptedFileStorage) Save(key string, data []byte) error {
	encrypted, err := s.encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	tokenFile := s.getTokenFilePath(key)
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0700); err != nil {
		return err
	}

	return os.WriteFile(tokenFile, encrypted, 0600)
}

func (s *EncryptedFileStorage) Load(key string) ([]byte, error) {
	tokenFile := s.getTokenFilePath(key)
	encrypted, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no stored token '%s'", key)
	}

	return s.decrypt(encrypted)
}

func (s *EncryptedFileStorage) Delete(key string) error {
	return os.Remove(s.getTokenFilePath(key))
}

func (s *EncryptedFileStorage) Name() string {
	return "encrypted-file"
}

func (s *EncryptedFileStorage) getTokenFilePath(key string) string {
	return filepath.Join(s.baseDir, "tokens", key+".enc")
}

func (s *EncryptedFileStorage) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *EncryptedFileStorage) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("invalid ciphertext")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertext = ciphertext[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}

	return plaintext, nil
}

// getOrCreateEncryptionKey generates or loads the encryption key
func getOrCreateEncryptionKey(baseDir string) ([]byte, error) {
	keyFile := filepath.Join(baseDir, ".keyfile")

	if data, err := os.ReadFile(keyFile); err == nil {
		key, err := base64.StdEncoding.DecodeString(string(data))
		if err == nil && len(key) == 32 {
			return key, nil
		}
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}

	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(keyFile, []byte(encoded), 0600); err != nil {
		return nil, err
	}

	return key, nil
}
