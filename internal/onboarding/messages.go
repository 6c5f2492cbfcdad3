package onboarding

import "encoding/json"

// Message is one normalized dialogue turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizeMessages projects the session's raw turn list into strict
// (role, content) pairs. Entries that are not objects, or whose role or
// content is missing, empty, or not a string, are dropped silently; the
// lead agent writes this list and is not fully trusted. Returns nil
// rather than an empty slice when nothing usable survives, so "no
// history" stays a single signal.
func NormalizeMessages(raw json.RawMessage) []Message {
	if len(raw) == 0 {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	var items []Message
	for _, entry := range entries {
		var m map[string]any
		if err := json.Unmarshal(entry, &m); err != nil || m == nil {
			continue
		}
		role, ok := m["role"].(string)
		if !ok || role == "" {
			continue
		}
		content, ok := m["content"].(string)
		if !ok || content == "" {
			continue
		}
		items = append(items, Message{Role: role, Content: content})
	}
	return items
}

// rawTurnCount reports how many entries the raw turn list carries, for
// discard diagnostics. Zero when the list itself is unusable.
func rawTurnCount(raw json.RawMessage) int {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0
	}
	return len(entries)
}
