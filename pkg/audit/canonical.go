package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CanonicalJSON produces the RFC 8785 (JCS) canonical JSON serialization of v.
// The hash chain depends on this being deterministic: sorted object keys,
// no insignificant whitespace, and stable number formatting. v must be
// JSON-serializable; non-serializable values (channels, funcs, cycles) fail.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling value: %w", err)
	}

	// Round-trip through a generic map so struct field order and custom
	// marshalers cannot influence the canonical form.
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("unmarshaling to generic form: %w", err)
	}

	return jcsSerialize(generic)
}

// jcsSerialize implements RFC 8785 JSON Canonicalization Scheme:
// lexicographically sorted object keys, compact separators, and numbers
// serialized per ES2015 Number.toString.
func jcsSerialize(v any) ([]byte, error) {
	var b strings.Builder
	if err := jcsWrite(&b, v); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func jcsWrite(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		data, err := json.Marshal(val)
		if err != nil {
			return err
		}
		b.Write(data)
	case float64:
		b.WriteString(jcsFormatNumber(val))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			b.WriteString(val.String())
		} else {
			b.WriteString(jcsFormatNumber(f))
		}
	case map[string]any:
		b.WriteByte('{')
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return err
			}
			b.Write(keyJSON)
			b.WriteByte(':')
			if err := jcsWrite(b, val[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := jcsWrite(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("jcs: unsupported type %T: %w", val, err)
		}
		b.Write(data)
	}
	return nil
}

// jcsFormatNumber formats a float64 per ES2015 Number.toString rules.
// Integers render without a decimal point; non-integers use the shortest
// round-trippable representation.
func jcsFormatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if f == float64(int64(f)) && f >= -1e15 && f <= 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'G', -1, 64)
}
