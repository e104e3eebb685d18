package markdown

import (
	"regexp"
	"strings"
)

// LineBreak is the inline marker used to store a newline inside a cell.
const LineBreak = "<br>"

var lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)

// DecodeLineBreaks replaces every line-break marker with a real newline.
func DecodeLineBreaks(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return lineBreakPattern.ReplaceAllString(s, "\n")
}

// EncodeLineBreaks replaces real newlines with the line-break marker.
func EncodeLineBreaks(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", LineBreak)
}

// NormalizeForCompare turns line-break markers and newlines into spaces and
// trims the result. It is used for sorting and type inference only, never
// for stored values.
func NormalizeForCompare(s string) string {
	if strings.Contains(s, "<") {
		s = lineBreakPattern.ReplaceAllString(s, " ")
	}
	if strings.ContainsAny(s, "\r\n") {
		s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	}
	return strings.TrimSpace(s)
}
