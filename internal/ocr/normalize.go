package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^[ \t]*[_\-=]{3,}[ \t]*$`)
)

// Normalize cleans acquired text for field extraction. It applies NFKC, unifies
// line endings, turns tabs into a single space, drops underline-only rows,
// trims trailing spaces except after a label colon and collapses runs of
// blank lines.
//
// Interior runs of spaces are kept: they are how form placeholders survive
// into the text and the value classifier rejects them.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reBoxNoise.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	for i := range lines {
		trimmed := strings.TrimRight(lines[i], " ")
		// "LABEL: " keeps its trailing space so "LABEL[:\s]+(.+)" still matches
		// the label line and the extractor can fall back to the next line.
		if !strings.HasSuffix(trimmed, ":") {
			lines[i] = trimmed
		}
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
