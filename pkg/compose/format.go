package compose

import (
	"strings"
	"unicode"
)

// LineBreak is the markup emitted for every line break in a fragment.
const LineBreak = "<br/>"

var (
	markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	lineReplacer  = strings.NewReplacer("\r\n", LineBreak, "\n", LineBreak)
)

// EscapeMarkup replaces &, < and > with their entity forms.
// It is not idempotent: escaping "&amp;" yields "&amp;amp;".
func EscapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}

// ToMarkupLines escapes s and turns every "\n" or "\r\n" into a line break.
func ToMarkupLines(s string) string {
	return lineReplacer.Replace(EscapeMarkup(s))
}

// EnsureTrailingComma appends a comma unless s is empty or its last
// character already is one. Trailing whitespace is not trimmed.
func EnsureTrailingComma(s string) string {
	if s == "" || strings.HasSuffix(s, ",") {
		return s
	}
	return s + ","
}

// stripTrailingComma removes one trailing comma, together with any
// whitespace after it, and trims the result.
func stripTrailingComma(s string) string {
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	if strings.HasSuffix(trimmed, ",") {
		s = trimmed[:len(trimmed)-1]
	}
	return strings.TrimSpace(s)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
