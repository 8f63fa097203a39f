package versioning

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// HashFieldState produces the content hash of a flattened field map: a
// lowercase hex SHA-256 over the canonical JSON rendering of the state.
// Two states that differ only in map key order or in JSON number spelling
// (1 vs 1.0) hash identically.
func HashFieldState(state map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, canonicalValue(state)); err != nil {
		return "", fmt.Errorf("canonicalize field state: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// canonicalValue normalizes a field value into the shapes writeCanonical
// understands. Raw JSON bytes are decoded into a number-preserving tree;
// nil and empty byte slices collapse to JSON null.
func canonicalValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		if len(bytes.TrimSpace(x)) == 0 {
			return nil
		}
		tree, err := jsonTree(x)
		if err != nil {
			// Not valid JSON; hash the raw text so the bytes still count.
			return string(x)
		}
		return tree
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = canonicalValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = canonicalValue(val)
		}
		return out
	default:
		return x
	}
}

// jsonTree decodes raw JSON keeping numbers as json.Number so that the
// canonical writer controls their spelling.
func jsonTree(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// writeCanonical renders v as canonical JSON: object keys sorted, arrays
// in order, numbers in a single normalized spelling.
func writeCanonical(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		b, err := json.Marshal(x)
		if err != nil {
			return err
		}
		buf.Write(b)
	case json.Number:
		buf.WriteString(canonicalNumber(x))
	case int:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case float64:
		buf.WriteString(canonicalFloat(x))
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, x[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, el := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unsupported field value type %T", v)
	}
	return nil
}

// canonicalNumber normalizes a JSON number: integral values render without
// a fractional part, everything else through the shortest float form.
func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return canonicalFloat(f)
}

func canonicalFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
