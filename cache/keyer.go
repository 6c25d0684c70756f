package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
)

// Keyer builds deterministic composite keys from query parameters.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key builds a cache key for params under namespace.
	Key(namespace string, params any) (string, error)
}

// QueryKeyer generates SHA-256 based query keys.
type QueryKeyer struct{}

// NewQueryKeyer creates a new query keyer.
func NewQueryKeyer() *QueryKeyer {
	return &QueryKeyer{}
}

// Key generates a deterministic cache key.
// Format: <namespace>:<hash>
// where hash is the first 16 characters of SHA-256(canonical JSON(params))
func (k *QueryKeyer) Key(namespace string, params any) (string, error) {
	canonical, err := Canonicalize(params)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize params: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return namespace + ":" + hex.EncodeToString(sum[:8]), nil
}

// RowKey returns the key, and conventional tag, for a single entity.
// Format: <namespace>:get:<id>
func RowKey(namespace, id string) string {
	return namespace + ":get:" + id
}

// FindNamespace returns the namespace for list queries over namespace.
func FindNamespace(namespace string) string {
	return namespace + ":find"
}

// Canonicalize produces a deterministic JSON representation of v.
// Structs are first round-tripped through encoding/json so their fields
// are ordered like map keys.
func Canonicalize(v any) ([]byte, error) {
	switch v.(type) {
	case nil, map[string]any, []any, string, bool, float64, json.Number:
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var generic any
		if err := dec.Decode(&generic); err != nil {
			return nil, err
		}
		v = generic
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)

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
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

// Ensure QueryKeyer implements Keyer
var _ Keyer = (*QueryKeyer)(nil)
