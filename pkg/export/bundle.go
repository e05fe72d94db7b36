// Package export provides portable audit evidence bundles: a self-contained
// JSON package of hash-chained audit records that can be verified offline,
// optionally encrypted with age for transport to an external audit sink.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ogulcanaydogan/govcore/pkg/audit"
	"github.com/ogulcanaydogan/govcore/pkg/crypto"
)

// BundleVersion identifies the bundle format.
const BundleVersion = "1.0"

// Bundle is a portable audit evidence package.
type Bundle struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	ExportedBy string         `json:"exported_by,omitempty"`
	Records    []audit.Record `json:"records"`
	Statistics audit.Stats    `json:"statistics"`
	Manifest   Manifest       `json:"manifest"`
}

// Manifest is a deterministic digest over the bundled records, so transport
// corruption of the bundle itself is detectable independently of the chain.
type Manifest struct {
	Algorithm    string `json:"algorithm"`
	RecordCount  int    `json:"record_count"`
	EvidenceHash string `json:"evidence_hash"`
}

// FromTrail exports the trail's records and statistics into a finalized bundle.
func FromTrail(t *audit.Trail, exportedBy string) (*Bundle, error) {
	b := &Bundle{
		Version:    BundleVersion,
		ExportedAt: time.Now().UTC(),
		ExportedBy: exportedBy,
		Records:    t.ExportRecords(),
		Statistics: t.Statistics(),
	}
	if err := b.Finalize(); err != nil {
		return nil, err
	}
	return b, nil
}

// Finalize computes the manifest over the canonical record payload.
func (b *Bundle) Finalize() error {
	canonical, err := audit.CanonicalJSON(b.Records)
	if err != nil {
		return fmt.Errorf("canonicalizing bundle records: %w", err)
	}
	b.Manifest = Manifest{
		Algorithm:    "sha256",
		RecordCount:  len(b.Records),
		EvidenceHash: crypto.SHA256Hex(canonical),
	}
	return nil
}

// Verify checks the bundle offline: the manifest digest over the records and
// the full hash chain walk. A tampered, reordered, or truncated bundle fails.
func (b *Bundle) Verify() error {
	canonical, err := audit.CanonicalJSON(b.Records)
	if err != nil {
		return fmt.Errorf("canonicalizing bundle records: %w", err)
	}
	if got := crypto.SHA256Hex(canonical); got != b.Manifest.EvidenceHash {
		return fmt.Errorf("bundle manifest mismatch: expected %s, got %s", b.Manifest.EvidenceHash, got)
	}
	if b.Manifest.RecordCount != len(b.Records) {
		return fmt.Errorf("bundle record count mismatch: manifest says %d, found %d", b.Manifest.RecordCount, len(b.Records))
	}
	if err := audit.VerifyRecords(b.Records); err != nil {
		return fmt.Errorf("bundle chain verification failed: %w", err)
	}
	return nil
}

// WriteJSON writes the bundle as indented JSON to path.
func (b *Bundle) WriteJSON(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing bundle to %s: %w", path, err)
	}
	return nil
}

// ReadJSON reads a bundle from a JSON file at path.
func ReadJSON(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle from %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses a bundle from JSON bytes.
func Decode(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding bundle: %w", err)
	}
	if b.Version == "" {
		return nil, fmt.Errorf("bundle has no version field")
	}
	return &b, nil
}
