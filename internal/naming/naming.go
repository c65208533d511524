// Package naming turns JSON object keys into Go identifiers.
package naming

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
)

// Style selects the key -> identifier transform.
type Style string

const (
	// StyleUnderscore removes each underscore and upper-cases the character
	// after it, then upper-cases the first character.
	StyleUnderscore Style = "underscore"
	// StyleCamel uses strcase.ToCamel, which also splits on '-', '.' and spaces.
	StyleCamel Style = "camel"
)

// FallbackName is used when a key transforms to the empty string.
const FallbackName = "Field"

// Valid reports whether s names a known style.
func (s Style) Valid() bool {
	return s == StyleUnderscore || s == StyleCamel
}

// Transform converts key using the given style. Unknown styles behave like
// StyleUnderscore.
func Transform(key string, style Style) string {
	var name string
	switch style {
	case StyleCamel:
		name = strcase.ToCamel(key)
	default:
		name = Underscore(key)
	}
	if name == "" {
		return FallbackName
	}
	return name
}

// Underscore applies the underscore transform: "user_id" -> "UserId".
// Underscores are consumed left to right together with the character that
// follows them, so "a__b" -> "A_b" and a trailing underscore is kept.
func Underscore(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); {
		r, size := utf8.DecodeRuneInString(key[i:])
		if r == '_' && i+size < len(key) {
			next, nextSize := utf8.DecodeRuneInString(key[i+size:])
			b.WriteRune(unicode.ToUpper(next))
			i += size + nextSize
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return Capitalize(b.String())
}

// Capitalize upper-cases the first character of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Unique hands out names that are unique within one scope. The first request
// for a name gets it unchanged; later requests get the smallest free numeric
// suffix starting at 2.
type Unique struct {
	used map[string]struct{}
}

// NewUnique returns an empty scope.
func NewUnique() *Unique {
	return &Unique{used: make(map[string]struct{})}
}

// Taken reports whether name has already been handed out.
func (u *Unique) Taken(name string) bool {
	_, ok := u.used[name]
	return ok
}

// Reserve marks name as used without checking it.
func (u *Unique) Reserve(name string) {
	u.used[name] = struct{}{}
}

// Claim returns name, or name with a numeric suffix if name is taken, and
// marks the result as used.
func (u *Unique) Claim(name string) string {
	candidate := name
	for n := 2; u.Taken(candidate); n++ {
		candidate = name + strconv.Itoa(n)
	}
	u.Reserve(candidate)
	return candidate
}
