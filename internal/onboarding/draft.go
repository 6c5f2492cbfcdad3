package onboarding

import "encoding/json"

// Draft is the agent's proposed goal, pending operator confirmation.
// Fields are independently optional; Objective and TargetDate collapse
// to nil unless present as strings, SuccessMetrics to nil unless a
// non-null object. A non-nil Draft is the authoritative "ready to
// confirm" signal even when every field resolved to nil.
type Draft struct {
	BoardType      string         `json:"board_type,omitempty"`
	Objective      *string        `json:"objective"`
	SuccessMetrics map[string]any `json:"success_metrics"`
	TargetDate     *string        `json:"target_date"`
}

// NormalizeDraft projects a possibly-partial, possibly-untyped draft
// goal into a strict record, or nil when the value is absent or not an
// object.
func NormalizeDraft(raw json.RawMessage) *Draft {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil
	}

	d := &Draft{}
	if s, ok := asString(m["board_type"]); ok {
		d.BoardType = s
	}
	if s, ok := asString(m["objective"]); ok {
		d.Objective = &s
	}
	if s, ok := asString(m["target_date"]); ok {
		d.TargetDate = &s
	}
	if metrics, ok := m["success_metrics"]; ok && len(metrics) > 0 && metrics[0] == '{' {
		var obj map[string]any
		if err := json.Unmarshal(metrics, &obj); err == nil && obj != nil {
			d.SuccessMetrics = obj
		}
	}
	return d
}
