// Package securestore encrypts per-user document bytes at rest.
// Plaintext never touches disk; only *.enc artifacts are written.
package securestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// EncSuffix marks files written by this store. Cleanup only ever touches
// files carrying it.
const EncSuffix = ".enc"

// Store writes and reads AES-256-GCM encrypted artifacts under a root
// directory, one subdirectory per user.
type Store struct {
	root   string
	logger *zap.Logger
}

// New creates a store rooted at dir.
func New(dir string, logger *zap.Logger) *Store {
	return &Store{root: dir, logger: logger}
}

// Store encrypts raw with key and writes it to <root>/<userID>/<filename>.enc,
// creating the user directory on demand. Returns the artifact path.
func (s *Store) Store(userID string, raw []byte, filename string, key []byte) (string, error) {
	dir := filepath.Join(s.root, userID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create user directory: %w", err)
	}

	sealed, err := encrypt(raw, key)
	if err != nil {
		return "", fmt.Errorf("encrypt %s: %w", filename, err)
	}

	path := filepath.Join(dir, sanitizeFilename(filename)+EncSuffix)
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		return "", fmt.Errorf("write encrypted file: %w", err)
	}

	s.logger.Info("Stored encrypted document",
		zap.String("user_id", userID),
		zap.String("path", path),
		zap.Int("plaintext_bytes", len(raw)),
	)
	return path, nil
}

// Decrypt reads the artifact at path and returns the plaintext.
// Returns domain.ErrDecryptFailed when the key is wrong or the ciphertext
// is corrupt.
func (s *Store) Decrypt(path string, key []byte) ([]byte, error) {
	sealed, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read encrypted file: %w", err)
	}

	plain, err := decrypt(sealed, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDecryptFailed, filepath.Base(path))
	}
	return plain, nil
}

// ClearEncrypted removes every *.enc artifact in the user directory,
// leaving the directory itself in place. Missing directory is not an error.
func (s *Store) ClearEncrypted(userID string) error {
	dir := filepath.Join(s.root, userID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read user directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), EncSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			s.logger.Error("Failed to remove encrypted file",
				zap.String("user_id", userID),
				zap.String("file", e.Name()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// DeleteAll removes the user's entire storage directory. Idempotent.
func (s *Store) DeleteAll(userID string) error {
	dir := filepath.Join(s.root, userID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove user directory: %w", err)
	}
	return nil
}

// encrypt seals raw as nonce||ciphertext with AES-256-GCM.
func encrypt(raw, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, raw, nil), nil
}

func decrypt(sealed, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short: %d bytes", len(sealed))
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return plain, nil
}

// sanitizeFilename strips path components and characters that could escape
// the user directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "document"
	}
	return name
}
