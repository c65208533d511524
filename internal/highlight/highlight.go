// Package highlight colours generated Go code for terminal output.
package highlight

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/mcncl/jsonstruct/internal/logging"
)

// Mode controls when output is coloured.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeAlways Mode = "always"
	ModeNever  Mode = "never"
)

// ParseMode validates a --color value.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeAuto, ModeAlways, ModeNever:
		return m, nil
	case "":
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("invalid color mode '%s': want auto, always or never", s)
	}
}

// Enabled reports whether output written to w should be coloured.
func (m Mode) Enabled(w io.Writer) bool {
	switch m {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	default:
		return logging.IsTerminal(w)
	}
}

// Go returns code with ANSI colour escapes. If chroma fails the code is
// returned unchanged.
func Go(code string) string {
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, "go", "terminal256", "monokai"); err != nil {
		return code
	}
	return buffer.String()
}

// Write writes code to w, coloured when mode allows it.
func Write(w io.Writer, code string, mode Mode) error {
	if mode.Enabled(w) {
		code = Go(code)
	}
	_, err := io.WriteString(w, code)
	return err
}
