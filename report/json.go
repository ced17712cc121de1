// SPDX-License-Identifier: MIT

package report

import (
	"encoding/json"
	"io"
)

// JSONWriter renders a Report as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
	omitDoses    bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption { return WithIndent("", "  ") }

// WithoutDoses drops the per-voxel dose array.
func WithoutDoses() JSONWriterOption {
	return func(w *JSONWriter) { w.omitDoses = true }
}

// NewJSONWriter returns a compact JSONWriter on output unless options say otherwise.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write implements Writer.
func (w *JSONWriter) Write(r *Report) (int, error) {
	var (
		data []byte
		err  error
	)
	v := *r
	if w.omitDoses {
		v.Doses = nil
	}
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')

	return w.output.Write(data)
}
