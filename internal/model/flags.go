package model

import (
	"encoding/json"
	"sort"
)

// Flag names used by the backend's serialized flag sets.
const (
	FlagSeen     = "seen"
	FlagFlagged  = "flagged"
	FlagAnswered = "answered"
	FlagDraft    = "draft"
)

// Flags is a message flag set. The backend serializes flags as a JSON array
// of strings inside a text column; payloads observed in the wild include
// empty strings, nulls, and malformed fragments, so decoding never fails.
type Flags map[string]struct{}

// DecodeFlags parses a serialized flag set. Any input that does not parse as
// a JSON string array yields the empty set.
func DecodeFlags(raw string) Flags {
	f := make(Flags)
	if raw == "" {
		return f
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return f
	}
	for _, n := range names {
		if n != "" {
			f[n] = struct{}{}
		}
	}
	return f
}

// Encode serializes the set as a sorted JSON array so that equal sets
// produce identical strings.
func (f Flags) Encode() string {
	names := make([]string, 0, len(f))
	for n := range f {
		names = append(names, n)
	}
	sort.Strings(names)
	b, err := json.Marshal(names)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Has reports whether the named flag is present.
func (f Flags) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Add inserts the named flag.
func (f Flags) Add(name string) {
	f[name] = struct{}{}
}

// Remove deletes the named flag.
func (f Flags) Remove(name string) {
	delete(f, name)
}
