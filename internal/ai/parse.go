package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrUnexpectedFormat is returned when a model answer holds no JSON object.
var ErrUnexpectedFormat = errors.New("format de réponse inattendu")

var (
	fenceRe  = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON returns the JSON object held by a model answer. The answer
// may be a bare object, an object inside a markdown code fence, or prose
// around a {...} object. Any other JSON value (null, scalar, array) is
// ErrUnexpectedFormat.
func ExtractJSON(text string) (json.RawMessage, error) {
	candidate := strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(candidate); m != nil {
		candidate = strings.TrimSpace(m[1])
	}
	if isObject(candidate) {
		return json.RawMessage(candidate), nil
	}

	if obj := objectRe.FindString(candidate); isObject(obj) {
		return json.RawMessage(obj), nil
	}
	return nil, ErrUnexpectedFormat
}

func isObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// DecodeJSON extracts the JSON document of a model answer into v.
func DecodeJSON(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Join(ErrUnexpectedFormat, err)
	}
	return nil
}
