// Package flatresult assembles the single-level diagnostic document
// returned for every warmup, successful or not.
package flatresult

import (
	"bytes"
	"encoding/json"
	"io"
)

// field is one key of the document.
type field struct {
	Key   string
	Value interface{}
}

// Result is a flat mapping that remembers insertion order.
// Setting an existing key replaces its value but keeps its position.
type Result struct {
	fields []field
	index  map[string]int
}

func New() *Result {
	return &Result{index: make(map[string]int)}
}

func (r *Result) Set(key string, value interface{}) {
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, field{key, value})
}

func (r *Result) Get(key string) (interface{}, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// Keys returns the keys in document order.
func (r *Result) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// MarshalJSON writes the fields as a JSON object in document order.
// HTML characters are left unescaped; json.Marshal escapes them again,
// Encode does not.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(f.Key); err != nil {
			return nil, err
		}
		trimNewline(&buf)
		buf.WriteByte(':')
		if err := enc.Encode(f.Value); err != nil {
			return nil, err
		}
		trimNewline(&buf)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode writes the document followed by a newline.
func (r *Result) Encode(w io.Writer) error {
	b, err := r.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// Encoder.Encode terminates every value with a newline
func trimNewline(buf *bytes.Buffer) {
	if n := buf.Len(); n > 0 && buf.Bytes()[n-1] == '\n' {
		buf.Truncate(n - 1)
	}
}
