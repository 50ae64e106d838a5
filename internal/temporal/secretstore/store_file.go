package secretstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"

	dErrors "tempora/pkg/domain-errors"
)

// FileStore persists one encrypted bundle file per credential under a
// directory the public API never serves from. Bundles are sealed with
// XChaCha20-Poly1305 under a single store key, so a leaked directory
// listing or file copy does not expose chain secrets.
type FileStore struct {
	dir  string
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
}

// NewFileStore opens (and creates if needed) the bundle directory.
// key must be 32 bytes, typically hex-decoded from configuration.
func NewFileStore(dir string, key []byte) (*FileStore, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, dErrors.New(dErrors.CodeInvalidArgument,
			fmt.Sprintf("secret store key must be %d bytes", chacha20poly1305.KeySize))
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "could not create secret store directory")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not initialize secret store cipher")
	}
	return &FileStore{dir: dir, aead: aead}, nil
}

func (s *FileStore) path(credentialID string) string {
	// Credential IDs are UUIDs; hex-encode anyway so no caller-controlled
	// byte ever reaches the filesystem path.
	return filepath.Join(s.dir, "credential-secrets-"+hex.EncodeToString([]byte(credentialID))+".bin")
}

func (s *FileStore) Put(_ context.Context, bundle Bundle) error {
	path := s.path(bundle.CredentialID)
	if _, err := os.Stat(path); err == nil {
		return ErrExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return dErrors.Wrap(err, dErrors.CodeStorage, "could not probe secret bundle")
	}

	plaintext, err := json.Marshal(bundle)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not encode secret bundle")
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not generate bundle nonce")
	}
	sealed := s.aead.Seal(nonce, nonce, plaintext, []byte(bundle.CredentialID))

	// O_EXCL backs the write-once rule against concurrent writers.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "could not create secret bundle")
	}
	defer f.Close()

	if _, err := f.Write(sealed); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "could not write secret bundle")
	}
	return nil
}

func (s *FileStore) Secret(ctx context.Context, credentialID string, epoch int) (string, error) {
	bundle, err := s.load(credentialID)
	if err != nil {
		return "", err
	}
	if epoch < 0 || epoch >= len(bundle.Secrets) {
		return "", ErrNotFound
	}
	return bundle.Secrets[epoch], nil
}

func (s *FileStore) load(credentialID string) (*Bundle, error) {
	sealed, err := os.ReadFile(s.path(credentialID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "could not read secret bundle")
	}
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, dErrors.New(dErrors.CodeStorage, "secret bundle truncated")
	}

	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(credentialID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "secret bundle failed authentication")
	}

	var bundle Bundle
	if err := json.Unmarshal(plaintext, &bundle); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "could not decode secret bundle")
	}
	return &bundle, nil
}

// GenerateKey returns a fresh hex-encoded store key, for provisioning.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate store key")
	}
	return hex.EncodeToString(key), nil
}
