package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// CollectionDelimiter separates items of a serialized collection.
const CollectionDelimiter = "|"

// formatVersion is the version written into every envelope.
const formatVersion = 1

// envelope is the on-disk representation of a value (format v1).
type envelope struct {
	Version int             `json:"v"`
	Kind    Kind            `json:"kind"`
	Value   json.RawMessage `json:"value"`
}

// encodeValue serializes v in the current format.
func encodeValue(v Value) ([]byte, error) {
	var payload any
	switch v.kind {
	case KindString:
		payload = v.str
	case KindInt, KindLong:
		payload = v.num
	case KindBool:
		payload = v.flag
	case KindStringSet:
		payload = v.set
	default:
		return nil, fmt.Errorf("cannot encode value of kind %q", v.kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}

	return json.Marshal(envelope{Version: formatVersion, Kind: v.kind, Value: raw})
}

// decodeLegacyOrCurrent decodes stored bytes written by any known format:
//
//   - v1: {"v":1,"kind":"...","value":...}
//   - v0: a JSON array of strings (native string set)
//   - v0: bare UTF-8 text (unenveloped string)
//
// It reports false for anything else.
func decodeLegacyOrCurrent(raw []byte) (Value, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		if raw == nil {
			return Value{}, false
		}
		return StringValue(string(raw)), utf8.Valid(raw)
	}

	switch trimmed[0] {
	case '{':
		if v, ok := decodeEnvelope(trimmed); ok {
			return v, true
		}
	case '[':
		var items []string
		if err := json.Unmarshal(trimmed, &items); err == nil {
			return SetValue(items), true
		}
	}

	if !utf8.Valid(raw) {
		return Value{}, false
	}
	return StringValue(string(raw)), true
}

func decodeEnvelope(raw []byte) (Value, bool) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Value{}, false
	}
	if env.Version < 1 || env.Version > formatVersion || len(env.Value) == 0 {
		return Value{}, false
	}

	switch env.Kind {
	case KindString:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return Value{}, false
		}
		return StringValue(s), true
	case KindInt, KindLong:
		var n int64
		if err := json.Unmarshal(env.Value, &n); err != nil {
			return Value{}, false
		}
		return Value{kind: env.Kind, num: n}, true
	case KindBool:
		var b bool
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return Value{}, false
		}
		return BoolValue(b), true
	case KindStringSet:
		var items []string
		if err := json.Unmarshal(env.Value, &items); err != nil {
			return Value{}, false
		}
		return SetValue(items), true
	default:
		return Value{}, false
	}
}

// DecodeCollection decodes stored bytes into an ordered list. Both the
// pipe-delimited string and the legacy string set are accepted. Malformed or
// absent input yields an empty list.
func DecodeCollection(raw []byte) []string {
	v, ok := decodeLegacyOrCurrent(raw)
	if !ok {
		return []string{}
	}
	return v.AsCollection()
}

// DecodeSet is DecodeCollection with duplicates removed and items sorted.
func DecodeSet(raw []byte) []string {
	return NormalizeSet(DecodeCollection(raw))
}

// SplitCollection splits a pipe-delimited string, dropping empty items.
func SplitCollection(s string) []string {
	if s == "" {
		return []string{}
	}
	return compact(strings.Split(s, CollectionDelimiter))
}

// JoinCollection serializes items as a pipe-delimited string.
func JoinCollection(items []string) string {
	return strings.Join(compact(items), CollectionDelimiter)
}

// NormalizeSet returns the sorted distinct non-empty items.
func NormalizeSet(items []string) []string {
	out := compact(items)
	slices.Sort(out)
	return slices.Compact(out)
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
