package onboarding

import (
	"encoding/json"
	"regexp"
	"strconv"
)

// QuestionOption is one selectable answer.
type QuestionOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Question is a decoded lead-agent question: a prompt plus at least one
// selectable option.
type Question struct {
	Question string           `json:"question"`
	Options  []QuestionOption `json:"options"`
}

// The agent wraps structured replies in prose or markdown fences
// inconsistently, so decoding runs twice: raw first, then against the
// inner text of the first fenced code block.
var fenceRE = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \t]*\\n?(.*?)```")

// ParseQuestion scans the normalized history for the latest assistant
// turn and tries to decode it into a Question. A failed decode is just
// "no question yet", never an error.
func ParseQuestion(msgs []Message) *Question {
	if len(msgs) == 0 {
		return nil
	}

	var content string
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "assistant" {
			content = msgs[i].Content
			break
		}
	}
	if content == "" {
		return nil
	}

	if q := decodeQuestion(content); q != nil {
		return q
	}
	if m := fenceRE.FindStringSubmatch(content); m != nil {
		return decodeQuestion(m[1])
	}
	return nil
}

// decodeQuestion strict-decodes a candidate payload: an object with a
// string question and an options array that yields at least one usable
// option.
func decodeQuestion(payload string) *Question {
	var data struct {
		Question json.RawMessage   `json:"question"`
		Options  []json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil
	}
	prompt, ok := asString(data.Question)
	if !ok || data.Options == nil {
		return nil
	}

	var options []QuestionOption
	for i, raw := range data.Options {
		if opt := normalizeOption(raw, i); opt != nil {
			options = append(options, *opt)
		}
	}
	if len(options) == 0 {
		return nil
	}
	return &Question{Question: prompt, Options: options}
}

// normalizeOption accepts a bare string or an object carrying a string
// label (or a string id used as the label). Ids default to the 1-based
// position among all raw entries. Anything else is dropped.
func normalizeOption(raw json.RawMessage, index int) *QuestionOption {
	if label, ok := asString(raw); ok {
		if label == "" {
			return nil
		}
		return &QuestionOption{ID: strconv.Itoa(index + 1), Label: label}
	}

	var obj struct {
		ID    json.RawMessage `json:"id"`
		Label json.RawMessage `json:"label"`
	}
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}

	id, idOK := asString(obj.ID)
	label, labelOK := asString(obj.Label)
	if !labelOK {
		label, labelOK = id, idOK
	}
	if !labelOK || label == "" {
		return nil
	}
	if !idOK {
		id = strconv.Itoa(index + 1)
	}
	return &QuestionOption{ID: id, Label: label}
}

// asString reports whether raw is a JSON string and returns its value.
// Plain Unmarshal would accept null as the zero string, which must not
// count.
func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
