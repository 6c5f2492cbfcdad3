package onboarding

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeMessagesDropsMalformedEntries(t *testing.T) {
	raw := json.RawMessage(`[
		{"role":"user","content":"hello","extra":"dropped"},
		{"role":"assistant"},
		{"role":42,"content":"nope"},
		"not an object",
		null,
		{"role":"assistant","content":"hi there"}
	]`)

	got := NormalizeMessages(raw)
	want := []Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected messages: %+v", got)
	}
}

func TestNormalizeMessagesUnusableInputs(t *testing.T) {
	cases := []json.RawMessage{
		nil,
		json.RawMessage(`null`),
		json.RawMessage(`"oops"`),
		json.RawMessage(`{"role":"user"}`),
		json.RawMessage(`[]`),
		json.RawMessage(`[{"role":1},{"content":2}]`),
	}
	for _, raw := range cases {
		if got := NormalizeMessages(raw); got != nil {
			t.Fatalf("expected nil for %s, got %+v", raw, got)
		}
	}
}

func TestNormalizeMessagesIdempotent(t *testing.T) {
	first := NormalizeMessages(json.RawMessage(`[{"role":"user","content":"a"},{"role":"assistant","content":"b"}]`))
	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second := NormalizeMessages(encoded)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization not idempotent: %+v vs %+v", first, second)
	}
}

func TestRawTurnCount(t *testing.T) {
	if n := rawTurnCount(json.RawMessage(`[1,2,3]`)); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	if n := rawTurnCount(json.RawMessage(`"nope"`)); n != 0 {
		t.Fatalf("expected 0 for non-array, got %d", n)
	}
}
