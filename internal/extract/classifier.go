// Package extract pulls FNOL fields out of noisy, label-heavy form text.
//
// Everything in this package is a pure function of its inputs and the
// configuration handed to the constructors, so a single FieldExtractor may be
// shared by any number of goroutines.
package extract

import (
	"strings"
	"unicode"
)

// ClassifierConfig controls what the Classifier treats as form noise.
type ClassifierConfig struct {
	// Lexicon words mark a candidate as a form label (case-insensitive substring match).
	Lexicon []string `yaml:"lexicon"`
	// Boilerplate markers identify document headers/footers (case-insensitive substring match).
	Boilerplate []string `yaml:"boilerplate"`
	// PlaceholderChars are form placeholder/reference markers.
	PlaceholderChars string `yaml:"placeholderChars"`
	// UpperRunThreshold is the number of fully upper-case tokens that marks a label run; <=0 disables the check.
	UpperRunThreshold int `yaml:"upperRunThreshold"`
}

// DefaultLexicon is the built-in label lexicon.
func DefaultLexicon() []string {
	return []string{
		"contact", "insured", "address", "location", "description", "loss",
		"date", "phone", "email", "city", "state", "zip", "country",
		"schedule", "remarks", "details", "information", "fax", "form", "naic",
		"line of business", "report number", "report", "police", "vehicle",
		"owner", "driver", "primary", "secondary",
	}
}

// DefaultClassifierConfig returns the production classifier settings.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Lexicon:           DefaultLexicon(),
		Boilerplate:       []string{"ACORD", "PAGE"},
		PlaceholderChars:  "()#",
		UpperRunThreshold: 3,
	}
}

// Classifier decides whether a captured string is a genuine value or form noise.
type Classifier struct {
	lexicon     []string
	boilerplate []string
	placeholder string
	upperRun    int
}

// NewClassifier builds a Classifier. The configuration is copied, so later
// changes to cfg do not affect the classifier.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{
		lexicon:     upperAll(cfg.Lexicon),
		boilerplate: upperAll(cfg.Boilerplate),
		placeholder: cfg.PlaceholderChars,
		upperRun:    cfg.UpperRunThreshold,
	}
}

// Accepts reports whether candidate looks like real data. The checks run in a
// fixed order and the first failing one rejects.
func (c *Classifier) Accepts(candidate string) bool {
	v := strings.TrimSpace(candidate)
	if v == "" || v == ":" {
		return false
	}
	if c.placeholder != "" && strings.ContainsAny(v, c.placeholder) {
		return false
	}
	if strings.Contains(v, ":") {
		return false
	}
	upper := strings.ToUpper(v)
	if containsAny(upper, c.boilerplate) {
		return false
	}
	if containsAny(upper, c.lexicon) {
		return false
	}
	if c.upperRun > 0 && countUpperTokens(v) >= c.upperRun {
		return false
	}
	if strings.Contains(v, "  ") {
		return false
	}
	return true
}

// ContainsLexiconWord reports whether s contains any lexicon entry, ignoring case.
func (c *Classifier) ContainsLexiconWord(s string) bool {
	return containsAny(strings.ToUpper(s), c.lexicon)
}

func containsAny(upper string, words []string) bool {
	for _, w := range words {
		if strings.Contains(upper, w) {
			return true
		}
	}
	return false
}

// countUpperTokens counts whitespace-separated tokens that have at least one
// letter and no lower-case letters.
func countUpperTokens(s string) int {
	n := 0
	for _, tok := range strings.Fields(s) {
		hasLetter, lower := false, false
		for _, r := range tok {
			if !unicode.IsLetter(r) {
				continue
			}
			hasLetter = true
			if unicode.IsLower(r) {
				lower = true
				break
			}
		}
		if hasLetter && !lower {
			n++
		}
	}
	return n
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
