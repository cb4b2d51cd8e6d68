// Package naming holds the identifier derivation shared by the resolver
// (type names) and the generator (field and constant names).
package naming

import (
	"strings"
	"unicode"
)

// Exported turns a schema title, definition key, or property name into a
// valid exported Go identifier: words split on non-alphanumeric runes, each
// word's first rune upper-cased, interior casing preserved ("mimeType" ->
// "MimeType", "tool_input" -> "ToolInput").
func Exported(raw string) string {
	b := &strings.Builder{}
	startWord := true
	for _, r := range raw {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			startWord = true
			continue
		}
		if startWord {
			r = unicode.ToUpper(r)
			startWord = false
		}
		b.WriteRune(r)
	}
	name := b.String()
	if name == "" {
		return ""
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "N" + name
	}
	return name
}
