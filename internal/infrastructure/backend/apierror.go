package backend

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// APIError is a backend-rejected request reduced to one human-readable
// message. Views present Message directly; nothing else is inspected.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// flattenFields converts a DRF-style validation body into one message
// per offending field: "field: msg, msg". Array and string values are
// flattened directly; object values are walked one level deep as
// "field.subfield: msgs". The detail/error keys are reserved for simple
// messages and skipped here. Keys are visited in sorted order so the
// result is deterministic.
func flattenFields(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msgs []string
	for _, field := range keys {
		if field == "detail" || field == "error" {
			continue
		}
		switch v := fields[field].(type) {
		case []any:
			msgs = append(msgs, field+": "+joinValues(v))
		case string:
			msgs = append(msgs, field+": "+v)
		case map[string]any:
			subKeys := make([]string, 0, len(v))
			for k := range v {
				subKeys = append(subKeys, k)
			}
			sort.Strings(subKeys)
			for _, sub := range subKeys {
				switch sv := v[sub].(type) {
				case []any:
					msgs = append(msgs, field+"."+sub+": "+joinValues(sv))
				case string:
					msgs = append(msgs, field+"."+sub+": "+sv)
				}
			}
		}
	}
	return msgs
}

// errorMessage extracts the single message for a non-2xx signup-style
// response body. Priority: a string detail/error key, then the
// field-flattened messages joined with "; ", then the raw body. A body
// that is not a JSON object yields ("", false) and the caller falls
// back to the HTTP status text.
func errorMessage(body []byte) (string, bool) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}
	if d, ok := fields["detail"].(string); ok && d != "" {
		return d, true
	}
	if e, ok := fields["error"].(string); ok && e != "" {
		return e, true
	}
	if msgs := flattenFields(fields); len(msgs) > 0 {
		return strings.Join(msgs, "; "), true
	}
	compact, err := json.Marshal(fields)
	if err != nil {
		return "", false
	}
	return string(compact), true
}

// loginErrorMessage extracts the message for a failed login: the detail
// key when present, otherwise every field-level error value flattened
// and joined with ", " (field names omitted, matching the login error
// contract).
func loginErrorMessage(body []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return "login failed"
	}
	if d, ok := fields["detail"].(string); ok && d != "" {
		return d
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var values []string
	for _, k := range keys {
		switch v := fields[k].(type) {
		case []any:
			values = append(values, joinValues(v))
		case string:
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return "login failed"
	}
	return strings.Join(values, ", ")
}

func joinValues(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	return strings.Join(parts, ", ")
}
