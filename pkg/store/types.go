// Package store provides the persistent key-value settings record shared by
// the launcher core.
//
// Values are typed (string, int, long, bool) and addressed through Key[T].
// Every edit reads, merges and writes the whole record inside one exclusive
// transaction and is durable before Edit returns. Observers receive every
// committed change, including changes made by other processes that share
// the same settings file.
//
// Example usage:
//
//	s, err := store.Open(store.Config{Path: "~/.config/launcher/settings.db"}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	iconPack := store.StringKey("icon_pack_package")
//	if err := store.Set(ctx, s, iconPack, "com.example.pack"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for pack := range store.Watch(ctx, s, iconPack, "") {
//	    fmt.Println("icon pack:", pack)
//	}
package store

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/0xmhha/launcher-core/pkg/metrics"
)

// Config configures a Store.
type Config struct {
	// Path of the BoltDB settings file. Empty selects an in-memory record.
	Path string

	// LockTimeout bounds the wait for the file lock held by another
	// handle or process (default: 5s).
	LockTimeout time.Duration

	// DebounceInterval coalesces file change events (default: 50ms).
	DebounceInterval time.Duration

	// DisableWatch turns off observation of writes made by other handles.
	DisableWatch bool

	// Metrics records edits and external changes. Optional.
	Metrics *metrics.Metrics
}

// Kind tags the type of a stored value.
type Kind string

// Value kinds.
const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindLong   Kind = "long"
	KindBool   Kind = "bool"

	// KindStringSet is only produced when decoding legacy records.
	KindStringSet Kind = "string_set"
)

// Value is one decoded settings value.
type Value struct {
	kind Kind
	str  string
	num  int64
	flag bool
	set  []string
}

// StringValue returns a string value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IntValue returns an int value.
func IntValue(n int) Value { return Value{kind: KindInt, num: int64(n)} }

// LongValue returns a long value.
func LongValue(n int64) Value { return Value{kind: KindLong, num: n} }

// BoolValue returns a bool value.
func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }

// SetValue returns a string set value.
func SetValue(items []string) Value {
	return Value{kind: KindStringSet, set: slices.Clone(items)}
}

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the value as a string. Legacy sets are joined with the
// collection delimiter.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindStringSet:
		return JoinCollection(v.set), true
	default:
		return "", false
	}
}

// AsInt64 returns the value as an integer. Numeric strings are accepted.
func (v Value) AsInt64() (int64, bool) {
	switch v.kind {
	case KindInt, KindLong:
		return v.num, true
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// AsBool returns the value as a bool. "true" and "false" strings are
// accepted.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.flag, true
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.str))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

// AsCollection returns the value as a list of strings.
func (v Value) AsCollection() []string {
	switch v.kind {
	case KindStringSet:
		return compact(v.set)
	case KindString:
		return SplitCollection(v.str)
	default:
		return []string{}
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindInt, KindLong:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	case KindStringSet:
		return slices.Equal(v.set, o.set)
	default:
		return true
	}
}

// String formats the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindInt, KindLong:
		return strconv.FormatInt(v.num, 10)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindStringSet:
		return fmt.Sprintf("%q", v.set)
	default:
		return "<invalid>"
	}
}
