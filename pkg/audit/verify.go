package audit

import "fmt"

// ChainError reports the first broken link found while walking a hash chain.
type ChainError struct {
	Index  int    // 0-based position of the offending record
	Action string // action of the offending record
	Reason string // "previous_hash mismatch" or "record_hash mismatch"
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("hash chain broken at record %d (%s): %s", e.Index, e.Action, e.Reason)
}

// VerifyChain walks the trail from the genesis hash and checks every link.
// It returns nil when the chain is empty or fully consistent, and a
// *ChainError identifying the first broken link otherwise. Verification
// failure is a reported condition, not a panic: tampering is expected input.
func (t *Trail) VerifyChain() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return verifyRecords(t.records)
}

// VerifyRecords checks the chain invariants over an exported record slice.
// It recomputes every content hash, so any field mutation, reordering,
// insertion, or deletion after export is detected.
func VerifyRecords(records []Record) error {
	return verifyRecords(records)
}

func verifyRecords(records []Record) error {
	expected := GenesisHash

	for i := range records {
		r := &records[i]

		if r.PreviousHash != expected {
			return &ChainError{Index: i, Action: r.Action, Reason: "previous_hash mismatch"}
		}

		computed, err := ComputeRecordHash(r)
		if err != nil {
			return &ChainError{Index: i, Action: r.Action, Reason: fmt.Sprintf("rehash failed: %v", err)}
		}
		if computed != r.RecordHash {
			return &ChainError{Index: i, Action: r.Action, Reason: "record_hash mismatch"}
		}

		expected = r.RecordHash
	}

	return nil
}
