package study

import (
	"encoding/json"
	"errors"
	"strings"
)

// Metadata is the JSON payload packed into the description column.
type Metadata struct {
	Subject              string `json:"subject"`
	Topic                string `json:"topic"`
	IsPomodoro           bool   `json:"isPomodoro"`
	PomodoroWorkMinutes  int    `json:"pomodoroWorkMinutes,omitempty"`
	PomodoroBreakMinutes int    `json:"pomodoroBreakMinutes,omitempty"`
}

// EncodeDescription packs m into a description string.
func EncodeDescription(m Metadata) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeDescription unpacks a description string. When raw is not a JSON
// object it falls back to treating title as the subject; the returned
// *DecodeError is informational and the Metadata is always usable.
func DecodeDescription(raw, title string) (Metadata, error) {
	fallback := Metadata{Subject: title}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}

	var m Metadata
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return fallback, &DecodeError{Raw: raw, Err: err}
	}
	if !strings.HasPrefix(trimmed, "{") {
		return fallback, &DecodeError{Raw: raw, Err: errors.New("description is not a JSON object")}
	}
	return m, nil
}
