// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"io"
	"strings"
)

// Writer renders a Report.
type Writer interface {
	// Write renders r and returns the number of bytes written.
	Write(r *Report) (int, error)
}

// Format names a Writer.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts the names above, case-insensitively, plus "md".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("report: unknown format %q", s)
	}
}

// NewWriter returns the Writer for f.
func NewWriter(f Format, output io.Writer) (Writer, error) {
	switch f {
	case FormatText:
		return NewTextWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("report: unknown format %q", f)
	}
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
