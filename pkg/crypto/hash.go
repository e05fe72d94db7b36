// Package crypto provides the hashing and encryption primitives for the
// governance core: SHA-256 digests for the audit hash chain and age
// encryption for exported evidence bundles.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashLength is the length of a hex-encoded SHA-256 digest.
const HashLength = 64

// GenesisHash is the well-known all-zero sentinel used as previous_hash for
// the first record in a chain.
var GenesisHash = strings.Repeat("0", HashLength)

// SHA256Hex computes the SHA-256 digest of data and returns it as a hex string.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// VerifyHash checks that data matches the expected hex digest.
func VerifyHash(data []byte, expected string) bool {
	return SHA256Hex(data) == expected
}

// ValidHash reports whether s looks like a hex-encoded SHA-256 digest.
func ValidHash(s string) bool {
	if len(s) != HashLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
