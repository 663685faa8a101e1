package todos

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// maxTitleLen is counted in characters, not bytes.
const maxTitleLen = 1024

// Fields carries the client-supplied attributes of a create or update.
// A nil field was not supplied.
type Fields struct {
	Title       *string
	Description *string
	IsDone      *bool
	DueDate     *time.Time
}

// Accepted due date layouts. Layouts without a zone are read as UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeFields parses a JSON request body and checks the type and format of
// every known attribute. Unknown attributes are ignored. An empty body is
// treated as an empty object.
func DecodeFields(body []byte) (Fields, error) {
	var f Fields
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return f, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return f, invalidType("", "request body must be a JSON object")
		}
		return f, invalidFormat("", "invalid JSON")
	}

	if v, ok := raw["title"]; ok {
		var s string
		if isNull(v) || json.Unmarshal(v, &s) != nil {
			return f, invalidType("title", "Proper title format required")
		}
		f.Title = &s
	}

	if v, ok := raw["description"]; ok {
		var s string
		if isNull(v) || json.Unmarshal(v, &s) != nil {
			return f, invalidType("description", `Please provide "description" as a string`)
		}
		f.Description = &s
	}

	if v, ok := raw["isDone"]; ok {
		var b bool
		if isNull(v) || json.Unmarshal(v, &b) != nil {
			return f, invalidType("isDone", `Please provide "isDone" as a boolean`)
		}
		f.IsDone = &b
	}

	if v, ok := raw["dueDate"]; ok {
		var s string
		if isNull(v) || json.Unmarshal(v, &s) != nil {
			return f, invalidType("dueDate", `Please provide "dueDate" as a string`)
		}
		d, err := ParseDueDate(s)
		if err != nil {
			return f, invalidFormat("dueDate", `Please provide "dueDate" as "YYYY-MM-DD"`)
		}
		f.DueDate = &d
	}

	return f, nil
}

// ParseDueDate reads a calendar date or date-time and returns it in UTC.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (f Fields) validateCreate() error {
	if f.Title == nil {
		return missingField("title", "Title is required")
	}
	return f.validateUpdate()
}

func (f Fields) validateUpdate() error {
	if f.Title == nil {
		return nil
	}
	if *f.Title == "" {
		return invalidFormat("title", "Proper title format required")
	}
	if utf8.RuneCountInString(*f.Title) > maxTitleLen {
		return invalidFormat("title", fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
