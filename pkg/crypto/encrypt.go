package crypto

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// GenerateX25519Identity creates a new age X25519 key pair.
// The identity (private key) also exposes the recipient (public key).
func GenerateX25519Identity() (*age.X25519Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating X25519 identity: %w", err)
	}
	return identity, nil
}

// Encrypt seals plaintext for a single age recipient, the shape evidence
// bundles use: one exporter, one audit consumer holding the matching
// identity. The ciphertext is returned base64-encoded together with the
// SHA-256 digest of the plaintext, which Decrypt checks after opening.
func Encrypt(plaintext []byte, recipient age.Recipient) (ciphertext string, plaintextHash string, err error) {
	if recipient == nil {
		return "", "", fmt.Errorf("a recipient is required")
	}

	var buf bytes.Buffer
	b64 := base64.NewEncoder(base64.StdEncoding, &buf)
	w, err := age.Encrypt(b64, recipient)
	if err != nil {
		return "", "", fmt.Errorf("sealing for recipient: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return "", "", fmt.Errorf("encrypting plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", "", fmt.Errorf("finalizing ciphertext: %w", err)
	}
	if err := b64.Close(); err != nil {
		return "", "", fmt.Errorf("encoding ciphertext: %w", err)
	}

	return buf.String(), SHA256Hex(plaintext), nil
}

// Decrypt opens a base64-encoded age ciphertext with identity. A non-empty
// expectedHash is checked against the recovered plaintext, binding the
// ciphertext to the content it claims to carry.
func Decrypt(ciphertextB64 string, expectedHash string, identity age.Identity) ([]byte, error) {
	if identity == nil {
		return nil, fmt.Errorf("an identity is required")
	}

	b64 := base64.NewDecoder(base64.StdEncoding, strings.NewReader(ciphertextB64))
	r, err := age.Decrypt(b64, identity)
	if err != nil {
		return nil, fmt.Errorf("opening ciphertext: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading plaintext: %w", err)
	}

	if expectedHash != "" && !VerifyHash(plaintext, expectedHash) {
		return nil, fmt.Errorf("plaintext hash mismatch: expected %s, got %s", expectedHash, SHA256Hex(plaintext))
	}
	return plaintext, nil
}

// ParseX25519Identity parses an age X25519 identity from its string form.
func ParseX25519Identity(s string) (*age.X25519Identity, error) {
	identity, err := age.ParseX25519Identity(s)
	if err != nil {
		return nil, fmt.Errorf("parsing X25519 identity: %w", err)
	}
	return identity, nil
}

// ParseX25519Recipient parses an age X25519 recipient (public key) from its
// string form, as configured for encrypted bundle export.
func ParseX25519Recipient(s string) (*age.X25519Recipient, error) {
	recipient, err := age.ParseX25519Recipient(s)
	if err != nil {
		return nil, fmt.Errorf("parsing X25519 recipient: %w", err)
	}
	return recipient, nil
}
