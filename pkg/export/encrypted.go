package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"filippo.io/age"

	"github.com/ogulcanaydogan/govcore/pkg/crypto"
)

// EncryptedBundle wraps an age-encrypted bundle for transport. The plaintext
// digest binds the ciphertext to the original bundle content.
type EncryptedBundle struct {
	Version       string    `json:"version"`
	EncryptedAt   time.Time `json:"encrypted_at"`
	Ciphertext    string    `json:"ciphertext"`
	PlaintextHash string    `json:"plaintext_hash"`
}

// Encrypt serializes the bundle and encrypts it for the given recipient.
func (b *Bundle) Encrypt(recipient age.Recipient) (*EncryptedBundle, error) {
	plaintext, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshaling bundle for encryption: %w", err)
	}

	ciphertext, plaintextHash, err := crypto.Encrypt(plaintext, recipient)
	if err != nil {
		return nil, fmt.Errorf("encrypting bundle: %w", err)
	}

	return &EncryptedBundle{
		Version:       BundleVersion,
		EncryptedAt:   time.Now().UTC(),
		Ciphertext:    ciphertext,
		PlaintextHash: plaintextHash,
	}, nil
}

// Decrypt recovers the bundle using the given identity, checking the
// plaintext digest before decoding.
func (eb *EncryptedBundle) Decrypt(identity age.Identity) (*Bundle, error) {
	plaintext, err := crypto.Decrypt(eb.Ciphertext, eb.PlaintextHash, identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting bundle: %w", err)
	}
	return Decode(plaintext)
}

// WriteJSON writes the encrypted bundle to path.
func (eb *EncryptedBundle) WriteJSON(path string) error {
	data, err := json.MarshalIndent(eb, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling encrypted bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing encrypted bundle to %s: %w", path, err)
	}
	return nil
}

// ReadEncryptedJSON reads an encrypted bundle from a JSON file at path.
func ReadEncryptedJSON(path string) (*EncryptedBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading encrypted bundle from %s: %w", path, err)
	}
	var eb EncryptedBundle
	if err := json.Unmarshal(data, &eb); err != nil {
		return nil, fmt.Errorf("decoding encrypted bundle: %w", err)
	}
	if eb.Ciphertext == "" {
		return nil, fmt.Errorf("encrypted bundle has no ciphertext")
	}
	return &eb, nil
}
