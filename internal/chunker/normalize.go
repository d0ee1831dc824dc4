package chunker

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize canonicalizes extracted text before splitting: line endings become
// LF, control characters other than newline and tab are removed, the text is
// composed to NFC and surrounding whitespace is trimmed. Blank input yields "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = lineEndings.Replace(text)
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	text = norm.NFC.String(text)
	return strings.TrimSpace(text)
}
