package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b\d{1,4}[-/]\d{1,2}[-/]\d{1,4}\b`)
	reAmount = regexp.MustCompile(`\$?\b\d{1,3}(,\d{3})+\b|\$\d+`)
	reLabels = regexp.MustCompile(`(?i)\b(policy|insured|claim|loss|vin)\b`)
)

// heuristicConfidence scores OCR output by how much it looks like a loss notice:
// a date, an amount, familiar labels and enough content each add to the score.
func heuristicConfidence(txt string) float32 {
	score := float32(0.2) // base
	if reDate.MatchString(txt) {
		score += 0.2
	}
	if reAmount.MatchString(txt) {
		score += 0.15
	}
	if n := len(reLabels.FindAllStringIndex(txt, 4)); n > 0 {
		score += 0.05 * float32(n)
	}
	if len(strings.TrimSpace(txt)) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
