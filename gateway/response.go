package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Response is a successful (2xx) backend response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Value normalizes the body the way console callers expect: an empty body is
// an empty object, JSON is decoded (bare scalars included), anything else is
// returned as the raw text.
func (r *Response) Value() any {
	if len(r.Body) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return string(r.Body)
	}
	return v
}

// Decode unmarshals the body into out. Empty bodies leave out untouched.
func (r *Response) Decode(out any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, out)
}

// errorDetail pulls a human readable message out of an error payload. The
// backend answers with {"message": ...} or {"detail": ...}; "error" is
// accepted for proxies in front of it.
func errorDetail(body []byte) (message string, data any) {
	if len(body) == 0 {
		return "", nil
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", nil
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return "", data
	}
	for _, key := range []string{"message", "detail", "error"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return s, data
		}
	}
	return "", data
}
