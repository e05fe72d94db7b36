package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Trail is an append-only, hash-chained audit log. Appends are serialized by
// an internal lock: the chain encodes a strict total order, and two appends
// computing record_hash from the same stale last hash would silently fork it.
// Instantiate one Trail per application or tenant and pass it explicitly to
// consumers.
type Trail struct {
	mu       sync.RWMutex
	records  []Record
	lastHash string
	logger   *slog.Logger
}

// NewTrail creates an empty trail whose chain starts at the genesis hash.
func NewTrail(logger *slog.Logger) *Trail {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trail{
		lastHash: GenesisHash,
		logger:   logger,
	}
}

// Append creates a record from e, links it to the current chain head, and
// appends it. The timestamp is captured at call time in UTC. If the entry's
// details are not JSON-serializable the append fails and the trail is left
// unchanged.
func (t *Trail) Append(e Entry) (*Record, error) {
	status := e.Status
	if status == "" {
		status = StatusSuccess
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := Record{
		Timestamp:    time.Now().UTC(),
		RequestID:    e.RequestID,
		UserID:       e.UserID,
		Action:       e.Action,
		Status:       status,
		PreviousHash: t.lastHash,
	}
	// Copy the details so later caller-side mutation cannot rewrite the
	// hashed content.
	if e.Details != nil {
		rec.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			rec.Details[k] = v
		}
	}

	hash, err := ComputeRecordHash(&rec)
	if err != nil {
		return nil, fmt.Errorf("hashing audit record for action %q: %w", e.Action, err)
	}
	rec.RecordHash = hash

	t.records = append(t.records, rec)
	t.lastHash = hash

	t.logger.Info("audit record appended",
		"action", rec.Action,
		"request_id", rec.RequestID,
		"status", string(rec.Status),
		"record_hash", rec.RecordHash,
	)

	out := rec.clone()
	return &out, nil
}

// Len returns the number of records in the trail.
func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// LastHash returns the current chain head (genesis hash if the trail is empty).
func (t *Trail) LastHash() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastHash
}

// RecordsByRequest returns all records with the given request ID, in append order.
func (t *Trail) RecordsByRequest(requestID string) []Record {
	return t.filter(func(r *Record) bool { return r.RequestID == requestID })
}

// RecordsByUser returns all records with the given user ID, in append order.
func (t *Trail) RecordsByUser(userID string) []Record {
	return t.filter(func(r *Record) bool { return r.UserID == userID })
}

// RecordsByAction returns all records with the given action, in append order.
func (t *Trail) RecordsByAction(action string) []Record {
	return t.filter(func(r *Record) bool { return r.Action == action })
}

func (t *Trail) filter(keep func(*Record) bool) []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Record
	for i := range t.records {
		if keep(&t.records[i]) {
			out = append(out, t.records[i].clone())
		}
	}
	return out
}

// ExportRecords returns a copy of all records in append order.
func (t *Trail) ExportRecords() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, 0, len(t.records))
	for i := range t.records {
		out = append(out, t.records[i].clone())
	}
	return out
}

// ExportJSON serializes all records to indented JSON, order preserved.
func (t *Trail) ExportJSON() ([]byte, error) {
	records := t.ExportRecords()
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("exporting audit records: %w", err)
	}
	return data, nil
}

// Stats summarizes a trail: total count, per-action/user/status counts, the
// current chain head, and the first/last record timestamps.
type Stats struct {
	TotalRecords int            `json:"total_records"`
	Actions      map[string]int `json:"actions"`
	Users        map[string]int `json:"users"`
	Statuses     map[Status]int `json:"statuses"`
	LastHash     string         `json:"last_hash"`
	FirstRecord  *time.Time     `json:"first_record,omitempty"`
	LastRecord   *time.Time     `json:"last_record,omitempty"`
}

// Statistics computes summary statistics over the trail. An empty trail
// yields zero counts, empty maps, and nil timestamps.
func (t *Trail) Statistics() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := Stats{
		Actions:  make(map[string]int),
		Users:    make(map[string]int),
		Statuses: make(map[Status]int),
		LastHash: t.lastHash,
	}

	for i := range t.records {
		r := &t.records[i]
		stats.Actions[r.Action]++
		stats.Users[r.UserID]++
		stats.Statuses[r.Status]++
	}
	stats.TotalRecords = len(t.records)

	if len(t.records) > 0 {
		first := t.records[0].Timestamp
		last := t.records[len(t.records)-1].Timestamp
		stats.FirstRecord = &first
		stats.LastRecord = &last
	}

	return stats
}
