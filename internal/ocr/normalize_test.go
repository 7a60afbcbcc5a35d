package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]struct {
		in, want string
	}{
		"empty":              {"", ""},
		"line endings":       {"a\r\nb\rc", "a\nb\nc"},
		"trailing spaces":    {"a   \nb\t\n", "a\nb"},
		"blank runs":         {"a\n\n\n\n\nb", "a\n\nb"},
		"underline rows":     {"NAME OF INSURED:\n__________\nJane", "NAME OF INSURED:\n\nJane"},
		"tabs":               {"VIN:\t\t123", "VIN: 123"},
		"keeps double space": {"John  Smith", "John  Smith"},
		"label keeps space":  {"NAME OF INSURED: \nJane Doe  ", "NAME OF INSURED: \nJane Doe"},
		"nfkc":               {"ＡＢＣ－１２３ x", "ABC-123 x"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestHeuristicConfidence(t *testing.T) {
	low := heuristicConfidence("lorem ipsum")
	high := heuristicConfidence("POLICY NUMBER: A1\nDATE OF LOSS: 2024-01-02\nESTIMATE AMOUNT: $12,500\nCLAIM TYPE: vehicle")
	assert.InDelta(t, 0.2, low, 0.0001)
	assert.Greater(t, high, low)
	assert.LessOrEqual(t, high, float32(1.0))
}

