// Package codelike guesses whether a block of text is source code so the
// editor can pick a syntax-highlighting widget instead of a plain text box.
//
// It is a cheap heuristic, not a lexer. Only two leading spaces count as
// indentation; tab-indented code is not detected by that rule.
package codelike

import "strings"

// Widget is the editor a note should be rendered with.
type Widget string

const (
	WidgetText Widget = "text"
	WidgetCode Widget = "code"
)

const leadingChars = "{}[]().;"

var keywords = []string{"function", "const ", "let ", "var ", "class "}

// IsCodeLike reports whether strictly more than half of the lines in text
// look like code. Text with fewer than two lines is never code-like.
func IsCodeLike(text string) bool {
	code, total := Count(text)
	if total < 2 {
		return false
	}
	return code*2 > total
}

// WidgetFor picks the editor widget for text.
func WidgetFor(text string) Widget {
	if IsCodeLike(text) {
		return WidgetCode
	}
	return WidgetText
}

// Count returns the number of code lines and the total number of lines in
// text. Empty text has zero lines.
func Count(text string) (code, total int) {
	if text == "" {
		return 0, 0
	}
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if isCodeLine(line) {
			code++
		}
	}
	return code, len(lines)
}

func isCodeLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(line, "  ") {
		return true
	}
	if strings.ContainsRune(leadingChars, rune(trimmed[0])) {
		return true
	}
	if strings.Contains(trimmed, "=>") {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(trimmed, kw) {
			return true
		}
	}
	return false
}
