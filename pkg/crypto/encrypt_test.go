package crypto

import (
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	identity, err := GenerateX25519Identity()
	if err != nil {
		t.Fatalf("GenerateX25519Identity: %v", err)
	}

	plaintext := []byte(`{"records":[{"action":"contract.upload"}]}`)

	ciphertext, hash, err := Encrypt(plaintext, identity.Recipient())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if hash != SHA256Hex(plaintext) {
		t.Errorf("plaintext hash = %s, want %s", hash, SHA256Hex(plaintext))
	}

	decrypted, err := Decrypt(ciphertext, hash, identity)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Errorf("round trip mismatch: got %q", decrypted)
	}
}

func TestEncryptRequiresRecipient(t *testing.T) {
	if _, _, err := Encrypt([]byte("data"), nil); err == nil {
		t.Error("Encrypt with no recipient should fail")
	}
}

func TestDecryptRequiresIdentity(t *testing.T) {
	identity, _ := GenerateX25519Identity()
	ciphertext, hash, err := Encrypt([]byte("data"), identity.Recipient())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(ciphertext, hash, nil); err == nil {
		t.Error("Decrypt with no identity should fail")
	}
}

func TestDecryptWrongIdentity(t *testing.T) {
	identity, _ := GenerateX25519Identity()
	other, _ := GenerateX25519Identity()

	ciphertext, hash, err := Encrypt([]byte("secret"), identity.Recipient())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := Decrypt(ciphertext, hash, other); err == nil {
		t.Error("Decrypt with wrong identity should fail")
	}
}

func TestDecryptHashMismatch(t *testing.T) {
	identity, _ := GenerateX25519Identity()

	ciphertext, _, err := Encrypt([]byte("secret"), identity.Recipient())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	wrong := strings.Repeat("a", HashLength)
	if _, err := Decrypt(ciphertext, wrong, identity); err == nil {
		t.Error("Decrypt with wrong expected hash should fail")
	}
}

func TestParseX25519Roundtrip(t *testing.T) {
	identity, _ := GenerateX25519Identity()

	parsedID, err := ParseX25519Identity(identity.String())
	if err != nil {
		t.Fatalf("ParseX25519Identity: %v", err)
	}
	if parsedID.Recipient().String() != identity.Recipient().String() {
		t.Error("parsed identity should expose the same recipient")
	}

	if _, err := ParseX25519Recipient(identity.Recipient().String()); err != nil {
		t.Fatalf("ParseX25519Recipient: %v", err)
	}

	if _, err := ParseX25519Identity("not-a-key"); err == nil {
		t.Error("ParseX25519Identity should reject garbage")
	}
}
