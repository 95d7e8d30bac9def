package vault

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileRoundtripAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.enc")
	ctx := context.Background()

	f, err := OpenFile(path, "correct horse")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := f.Set(ctx, "auth:credentials", `{"email":"ada@example.com"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := f.Set(ctx, "auth:pin", `{"hash":"x"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A second handle with the same passphrase sees the data.
	reopened, err := OpenFile(path, "correct horse")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, "auth:credentials")
	if err != nil || got != `{"email":"ada@example.com"}` {
		t.Fatalf("Get after reopen = %q, %v", got, err)
	}

	if err := reopened.Delete(ctx, "auth:pin"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := reopened.Get(ctx, "auth:pin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get deleted = %v", err)
	}
}

func TestFileWrongPassphraseFailsFast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.enc")

	f, err := OpenFile(path, "correct horse")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := f.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := OpenFile(path, "battery staple"); !errors.Is(err, ErrStorage) {
		t.Fatalf("wrong passphrase open = %v, want ErrStorage", err)
	}
}

func TestFileContentIsOpaque(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.enc")
	secret := "very-secret-token"

	f, err := OpenFile(path, "correct horse")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := f.Set(context.Background(), "k", secret); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("vault file empty")
	}
	if bytes.Contains(raw, []byte(secret)) {
		t.Fatal("plaintext value visible in vault file")
	}
}

func TestFileClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.enc")
	ctx := context.Background()

	f, err := OpenFile(path, "correct horse")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	f.Set(ctx, "a", "1")
	f.Set(ctx, "b", "2")

	if err := f.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := f.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after clear = %v", err)
	}
}
