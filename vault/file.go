package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	fileKeySize    = 32 // AES-256
	fileNonceSize  = 12
	fileSaltSize   = 32
	fileIterations = 600_000 // PBKDF2-SHA-256, OWASP 2023 floor
)

// File is a [Vault] persisted as a single AES-256-GCM encrypted file. The
// encryption key is derived from a caller-supplied passphrase with
// PBKDF2-SHA-256; the salt is stored next to the ciphertext. Each Set/Delete
// rewrites the whole file via an atomic rename, so a kill mid-write leaves
// the previous generation intact.
type File struct {
	mu   sync.Mutex
	path string
	key  []byte
}

type fileEnvelope struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// OpenFile opens or creates the encrypted vault at path.
func OpenFile(path, passphrase string) (*File, error) {
	if path == "" || passphrase == "" {
		return nil, fmt.Errorf("%w: file vault requires path and passphrase", ErrStorage)
	}

	salt, err := readOrCreateSalt(path + ".salt")
	if err != nil {
		return nil, err
	}

	f := &File{
		path: path,
		key:  pbkdf2.Key([]byte(passphrase), salt, fileIterations, fileKeySize, sha256.New),
	}

	// Fail fast on a wrong passphrase instead of at first Get.
	if _, err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Get implements [Vault].
func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements [Vault].
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.store(values)
}

// Delete implements [Vault].
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.store(values)
}

// Clear implements [Vault].
func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store(map[string]string{})
}

func (f *File) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, f.path, err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: corrupt vault envelope: %v", ErrStorage, err)
	}

	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil || len(nonce) != fileNonceSize {
		return nil, fmt.Errorf("%w: corrupt vault nonce", ErrStorage)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt vault ciphertext", ErrStorage)
	}

	plaintext, err := f.open(nonce, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt failed (wrong passphrase or tampered data)", ErrStorage)
	}

	values := map[string]string{}
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("%w: corrupt vault payload: %v", ErrStorage, err)
	}
	return values, nil
}

func (f *File) store(values map[string]string) error {
	plaintext, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", ErrStorage, err)
	}

	nonce := make([]byte, fileNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("%w: nonce generation: %v", ErrStorage, err)
	}

	ciphertext, err := f.seal(nonce, plaintext)
	if err != nil {
		return fmt.Errorf("%w: encrypt: %v", ErrStorage, err)
	}

	raw, err := json.Marshal(fileEnvelope{
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return fmt.Errorf("%w: encode envelope: %v", ErrStorage, err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrStorage, tmp, err)
	}
	return nil
}

func (f *File) seal(nonce, plaintext []byte) ([]byte, error) {
	gcm, err := f.aead()
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

func (f *File) open(nonce, ciphertext []byte) ([]byte, error) {
	gcm, err := f.aead()
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func (f *File) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(f.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func readOrCreateSalt(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		salt, decErr := base64.StdEncoding.DecodeString(string(raw))
		if decErr != nil || len(salt) != fileSaltSize {
			return nil, fmt.Errorf("%w: corrupt vault salt", ErrStorage)
		}
		return salt, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: read salt: %v", ErrStorage, err)
	}

	salt := make([]byte, fileSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: salt generation: %v", ErrStorage, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: create vault dir: %v", ErrStorage, err)
	}
	if err := os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(salt)), 0o600); err != nil {
		return nil, fmt.Errorf("%w: write salt: %v", ErrStorage, err)
	}
	return salt, nil
}
