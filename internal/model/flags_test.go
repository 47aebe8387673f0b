package model

import "testing"

func TestDecodeFlags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty string", raw: "", want: nil},
		{name: "empty array", raw: "[]", want: nil},
		{name: "single flag", raw: `["seen"]`, want: []string{"seen"}},
		{name: "multiple flags", raw: `["seen","flagged"]`, want: []string{"seen", "flagged"}},
		{name: "malformed json", raw: `{"seen`, want: nil},
		{name: "wrong shape", raw: `{"seen":true}`, want: nil},
		{name: "null", raw: "null", want: nil},
		{name: "blank entries dropped", raw: `["","seen"]`, want: []string{"seen"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DecodeFlags(tt.raw)
			if len(f) != len(tt.want) {
				t.Fatalf("DecodeFlags(%q) has %d flags, want %d", tt.raw, len(f), len(tt.want))
			}
			for _, name := range tt.want {
				if !f.Has(name) {
					t.Errorf("DecodeFlags(%q) missing flag %q", tt.raw, name)
				}
			}
		})
	}
}

func TestFlagsEncodeStable(t *testing.T) {
	a := DecodeFlags(`["flagged","seen"]`)
	b := DecodeFlags(`["seen","flagged"]`)

	if a.Encode() != b.Encode() {
		t.Errorf("Encode not order-independent: %q vs %q", a.Encode(), b.Encode())
	}
	if got := a.Encode(); got != `["flagged","seen"]` {
		t.Errorf("Encode = %q, want sorted array", got)
	}
}

func TestFlagsAddOnMalformed(t *testing.T) {
	// Malformed existing flags must behave as empty-then-add, never error.
	f := DecodeFlags("not json at all")
	f.Add(FlagSeen)

	if !f.Has(FlagSeen) {
		t.Fatal("expected seen flag after Add")
	}
	if got := f.Encode(); got != `["seen"]` {
		t.Errorf("Encode = %q, want [\"seen\"]", got)
	}
}

func TestEmailKey(t *testing.T) {
	msg := &Email{ID: 7, FolderID: 3}
	draft := &Email{ID: 7, FolderID: DraftFolderID}

	if msg.Key() == draft.Key() {
		t.Fatal("message and draft rows with the same id must not share a key")
	}
	if msg.Key().Kind != RowKindMessage || draft.Key().Kind != RowKindDraft {
		t.Errorf("unexpected kinds: %v, %v", msg.Key().Kind, draft.Key().Kind)
	}
}

func TestEmailOrdering(t *testing.T) {
	older := &Email{ID: 9, Date: "2026-01-01T10:00:00Z"}
	newer := &Email{ID: 2, Date: "2026-01-02T10:00:00Z"}
	sameDateLowID := &Email{ID: 1, Date: "2026-01-02T10:00:00Z"}

	if !Less(older, newer) {
		t.Error("older date should sort after newer (strictly less)")
	}
	if !Less(sameDateLowID, newer) {
		t.Error("same date, lower id should be strictly less")
	}
	if Less(newer, newer) {
		t.Error("a row is not less than itself")
	}
}
