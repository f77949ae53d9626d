package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Point is one dated observation of an economic series.
type Point struct {
	Date  string
	Value float64
}

// Series is a date→value mapping that remembers key order.
//
// The backend encodes series as JSON objects and the dashboard shows them in
// payload order, so decoding into a Go map would lose information.
type Series []Point

// UnmarshalJSON decodes a JSON object token by token, keeping key order.
// A JSON null decodes into an empty series.
func (s *Series) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("series: expected object, got %v", tok)
	}

	out := make(Series, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("series: expected string key, got %v", tok)
		}
		var v *float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("series: value for %q: %w", key, err)
		}
		// FRED gaps come through as null; they carry no observation.
		if v == nil {
			continue
		}
		out = append(out, Point{Date: key, Value: *v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// MarshalJSON writes the series back as an object in the same key order.
func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Date)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Tail returns at most the last n points, preserving order.
func (s Series) Tail(n int) Series {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Latest returns the last value of the series, or 0 when it is empty.
func (s Series) Latest() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Value
}
