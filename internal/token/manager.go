// Package token provides generation, hashing and verification of calendar
// feed bearer secrets, and encryption of external provider credentials.
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	// secretBytes is the entropy of a raw token: 256 bits, rendered as a
	// 64-character lowercase hex string.
	secretBytes = 32
	// SecretLength is the length of the hex-encoded raw token.
	SecretLength = secretBytes * 2

	// DefaultLifetime is how long a minted token stays valid when the
	// caller does not specify a lifetime.
	DefaultLifetime = 30 * 24 * time.Hour

	envelopeSeparator = ":"
)

// DecryptionError reports a malformed or tampered credential envelope. It is
// a distinct type so callers can tell corrupt data apart from access denial.
type DecryptionError struct {
	Reason string
}

func (e *DecryptionError) Error() string {
	return "decrypting credentials: " + e.Reason
}

// Manager mints and verifies feed tokens and encrypts provider credentials.
// The zero value is not usable; construct with NewManager.
type Manager struct {
	hashKey []byte
	aead    cipher.AEAD
}

// NewManager creates a manager from the server-held keys. hashKey signs
// token hashes and must be non-empty; encryptionKey must be 32 bytes
// (AES-256).
func NewManager(hashKey, encryptionKey []byte) (*Manager, error) {
	if len(hashKey) == 0 {
		return nil, fmt.Errorf("token hash key must not be empty")
	}
	if len(encryptionKey) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(encryptionKey))
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &Manager{
		hashKey: hashKey,
		aead:    aead,
	}, nil
}

// GenerateToken produces a new opaque bearer secret: 256 bits from the
// system CSPRNG, hex-encoded. The caller is responsible for showing it to
// the user exactly once and persisting only its hash.
func (m *Manager) GenerateToken() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken computes the keyed HMAC-SHA256 hash of a raw token. A leaked
// hash cannot be dictionary-attacked offline without the server key.
func (m *Manager) HashToken(secret string) string {
	mac := hmac.New(sha256.New, m.hashKey)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyToken recomputes the hash of secret and compares it to storedHash in
// constant time. A malformed stored hash is indistinguishable from a wrong
// token: the result is false, never an error.
func (m *Manager) VerifyToken(secret, storedHash string) bool {
	expected, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, m.hashKey)
	mac.Write([]byte(secret))
	return hmac.Equal(mac.Sum(nil), expected)
}

// ValidTokenFormat reports whether s has the shape of a raw token: exactly
// 64 lowercase hex characters. Anything else is rejected before any hash
// comparison is attempted.
func ValidTokenFormat(s string) bool {
	if len(s) != SecretLength {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// TokenWithExpiry generates a token together with its expiry instant.
// A non-positive lifetime falls back to DefaultLifetime.
func (m *Manager) TokenWithExpiry(lifetime time.Duration) (string, time.Time, error) {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	secret, err := m.GenerateToken()
	if err != nil {
		return "", time.Time{}, err
	}

	return secret, time.Now().UTC().Add(lifetime), nil
}

// IsExpired reports whether a token expiry has passed. A token with no
// expiry never expires.
func IsExpired(expiresAt *time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return time.Now().UTC().After(*expiresAt)
}

// Encrypt seals plaintext credential material with AES-256-GCM. Each call
// draws a fresh random nonce, carried in the envelope alongside the
// ciphertext as base64(nonce):base64(ciphertext).
func (m *Manager) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, m.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := m.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(nonce) +
		envelopeSeparator +
		base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens an envelope produced by Encrypt. It returns a
// *DecryptionError when the envelope is malformed or fails authentication,
// so tampering with stored credentials is detected rather than decrypted
// into garbage.
func (m *Manager) Decrypt(envelope string) (string, error) {
	parts := strings.SplitN(envelope, envelopeSeparator, 2)
	if len(parts) != 2 {
		return "", &DecryptionError{Reason: "missing nonce separator"}
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", &DecryptionError{Reason: "invalid nonce encoding"}
	}
	if len(nonce) != m.aead.NonceSize() {
		return "", &DecryptionError{Reason: "wrong nonce size"}
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", &DecryptionError{Reason: "invalid ciphertext encoding"}
	}

	plaintext, err := m.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", &DecryptionError{Reason: "authentication failed"}
	}

	return string(plaintext), nil
}
