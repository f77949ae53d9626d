package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxBodyBytes bounds what a single form submission may carry.
const maxBodyBytes = 1 << 20

var (
	errBodyTooLarge = errors.New("request body too large")
	errBadBody      = errors.New("malformed request body")
)

// submission is a decoded form post. HTMX sends urlencoded forms; a body
// starting with '{' is read as a flat JSON object instead.
type submission struct {
	values url.Values
}

func readSubmission(r *http.Request) (*submission, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, errBodyTooLarge
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadBody, err)
		}
		values := url.Values{}
		for k, v := range fields {
			if s, ok := scalarString(v); ok {
				values.Set(k, s)
			}
		}
		return &submission{values: values}, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	return &submission{values: values}, nil
}

// decodeSubmission reads the posted fields or answers with an error banner
// and reports false.
func decodeSubmission(w http.ResponseWriter, r *http.Request) (*submission, bool) {
	sub, err := readSubmission(r)
	switch {
	case err == nil:
		return sub, true
	case errors.Is(err, errBodyTooLarge):
		Banner(http.StatusRequestEntityTooLarge, "Submission is too large").Write(w)
	default:
		Banner(http.StatusBadRequest, "Invalid request format").Write(w)
	}
	return nil, false
}

// Raw is the field exactly as posted. Markup is left alone: templates escape
// it on the way out and the backend receives the user's own text.
func (s *submission) Raw(key string) string {
	return s.values.Get(key)
}

// Int reads a whole number, falling back to def.
func (s *submission) Int(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.values.Get(key)))
	if err != nil {
		return def
	}
	return n
}

// scalarString renders JSON strings, numbers and booleans; objects,
// arrays and null are dropped.
func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// countryParam reads ?country= as an upper-case ISO-3166 alpha-3 code.
// Anything else yields "" so the default country applies.
func countryParam(query url.Values) string {
	c := strings.ToUpper(strings.TrimSpace(query.Get("country")))
	if len(c) != 3 {
		return ""
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return c
}
