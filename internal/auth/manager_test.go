package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManagerWithOptions(t.TempDir(), ManagerOptions{ForceEncryptedFile: true})
	if err != nil {
		t.Fatalf("NewManagerWithOptions failed: %v", err)
	}
	return m
}

func TestSaveLoadDeleteToken(t *testing.T) {
	t.Setenv(EnvToken, "")
	m := newTestManager(t)

	if m.HasToken() {
		t.Error("expected no token initially")
	}

	if err := m.SaveToken("ghp_testtoken123"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	token, err := m.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if token != "ghp_testtoken123" {
		t.Errorf("expected saved token, got %q", token)
	}

	if err := m.DeleteToken(); err != nil {
		t.Fatalf("DeleteToken failed: %v", err)
	}
	if m.HasToken() {
		t.Error("expected no token after delete")
	}
}

func TestSaveTokenRejectsEmpty(t *testing.T) {
	m := newTestManager(t)

	if err := m.SaveToken("   "); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestEnvTokenTakesPrecedence(t *testing.T) {
	m := newTestManager(t)

	if err := m.SaveToken("stored-token"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	t.Setenv(EnvToken, "env-token")

	token, err := m.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if token != "env-token" {
		t.Errorf("expected env token to win, got %q", token)
	}
}

func TestTokenFileIsEncrypted(t *testing.T) {
	t.Setenv(EnvToken, "")
	dir := t.TempDir()
	m, err := NewManagerWithOptions(dir, ManagerOptions{ForceEncryptedFile: true})
	if err != nil {
		t.Fatalf("NewManagerWithOptions failed: %v", err)
	}

	if err := m.SaveToken("ghp_secretvalue"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "tokens", "github-token.enc"))
	if err != nil {
		t.Fatalf("reading token file: %v", err)
	}
	if string(data) == "ghp_secretvalue" {
		t.Error("token stored in plaintext")
	}

	info, err := os.Stat(filepath.Join(dir, "tokens", "github-token.enc"))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %o", info.Mode().Perm())
	}
}

func TestStorageName(t *testing.T) {
	m := newTestManager(t)
	if m.StorageName() != "encrypted-file" {
		t.Errorf("unexpected storage name %q", m.StorageName())
	}
}
