// Package audit provides an in-memory, append-only, hash-chained audit trail
// with tamper detection, query accessors, export, and statistics.
package audit

import (
	"time"

	"github.com/ogulcanaydogan/govcore/pkg/crypto"
)

// Status describes the outcome of an audited action. The enum is open:
// callers may record additional status strings.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusPending Status = "pending"
)

// GenesisHash is the previous_hash of the first record in a chain.
var GenesisHash = crypto.GenesisHash

// Record is a single immutable audit record. Each record embeds the hash of
// its predecessor, so retroactive tampering breaks the chain from the point
// of modification onward.
type Record struct {
	Timestamp    time.Time      `json:"timestamp"`
	RequestID    string         `json:"request_id"`
	UserID       string         `json:"user_id"`
	Action       string         `json:"action"`
	Details      map[string]any `json:"details"`
	Status       Status         `json:"status"`
	PreviousHash string         `json:"previous_hash"`
	RecordHash   string         `json:"record_hash"`
}

// Entry is the caller-supplied portion of a record. Status defaults to
// StatusSuccess when empty.
type Entry struct {
	Action    string
	RequestID string
	UserID    string
	Details   map[string]any
	Status    Status
}

// hashPayload returns the map that is canonicalized and hashed to produce
// record_hash. It covers every record field except record_hash itself.
func hashPayload(r *Record) map[string]any {
	return map[string]any{
		"timestamp":     r.Timestamp.UTC().Format(time.RFC3339Nano),
		"request_id":    r.RequestID,
		"user_id":       r.UserID,
		"action":        r.Action,
		"details":       r.Details,
		"status":        string(r.Status),
		"previous_hash": r.PreviousHash,
	}
}

// ComputeRecordHash computes the content hash of a record from every field
// except record_hash, using the canonical JSON payload.
func ComputeRecordHash(r *Record) (string, error) {
	canonical, err := CanonicalJSON(hashPayload(r))
	if err != nil {
		return "", err
	}
	return crypto.SHA256Hex(canonical), nil
}

// clone returns a deep-enough copy of the record for safe external use.
// Details maps are copied one level deep; records are treated as immutable
// once appended, so nested values are shared.
func (r *Record) clone() Record {
	out := *r
	if r.Details != nil {
		out.Details = make(map[string]any, len(r.Details))
		for k, v := range r.Details {
			out.Details[k] = v
		}
	}
	return out
}
