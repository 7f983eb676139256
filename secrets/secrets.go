// Package secrets handles symmetric encryption of provider API keys.
//
// Keys are Fernet tokens so a leaked database row is useless without the
// server secret. The Fernet key is derived deterministically from the
// secret, so rotation means re-encrypting every stored credential.
package secrets

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// ErrDecrypt is returned when a ciphertext cannot be verified with the
// configured secret. A wrong secret fails loudly, never returns garbage.
var ErrDecrypt = errors.New("decryption failed")

// Cipher encrypts and decrypts API keys with a key derived from the
// server-wide secret. Construct once and inject; safe for concurrent use.
type Cipher struct {
	key *fernet.Key
}

// NewCipher derives the Fernet key from serverSecret.
func NewCipher(serverSecret string) (*Cipher, error) {
	if serverSecret == "" {
		return nil, errors.New("server secret is empty")
	}
	sum := sha256.Sum256([]byte(serverSecret))
	key, err := fernet.DecodeKey(base64.URLEncoding.EncodeToString(sum[:]))
	if err != nil {
		return nil, fmt.Errorf("derive fernet key: %w", err)
	}
	return &Cipher{key: key}, nil
}

// Encrypt returns the Fernet token for plaintext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plaintext), c.key)
	if err != nil {
		return "", fmt.Errorf("encrypt api key: %w", err)
	}
	return string(tok), nil
}

// Decrypt verifies and opens a token produced by Encrypt. Tokens never
// expire; the TTL check is disabled because stored credentials have no
// natural lifetime.
func (c *Cipher) Decrypt(token string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{c.key})
	if msg == nil {
		return "", ErrDecrypt
	}
	return string(msg), nil
}
