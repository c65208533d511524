package formatter

import (
	"go/format"
	"strings"

	"github.com/mcncl/jsonstruct/internal/errors"
)

// Formatter is responsible for formatting Go code according to standard conventions
type Formatter struct{}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format runs code through gofmt. Both complete files and bare declaration
// lists are accepted.
func (f *Formatter) Format(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", nil
	}

	formatted, err := format.Source([]byte(code))
	if err != nil {
		return "", errors.NewFormatError("failed to parse Go code", err)
	}
	return string(formatted), nil
}

// FormatOrOriginal formats code, returning the unformatted text together with
// the error when formatting fails.
func (f *Formatter) FormatOrOriginal(code string) (string, error) {
	formatted, err := f.Format(code)
	if err != nil {
		return code, err
	}
	return formatted, nil
}
