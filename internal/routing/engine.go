// Package routing turns an extracted FNOL field set into a triage decision.
package routing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/fnol-triage/constants"
	"github.com/joseph-ayodele/fnol-triage/internal/extract"
)

// Route names.
const (
	RouteManualReview  = "Manual Review"
	RouteInvestigation = "Investigation"
	RouteSpecialist    = "Specialist Queue"
	RouteFastTrack     = "Fast-track"
)

// Routes lists every route name the engine can produce.
func Routes() []string {
	return []string{RouteManualReview, RouteInvestigation, RouteSpecialist, RouteFastTrack}
}

// Rule identifies which decision rule fired.
type Rule int

const (
	RuleMissingFields Rule = iota + 1
	RuleFraudKeyword
	RuleInjury
	RuleFastTrack
	RuleDefault
)

func (r Rule) String() string {
	switch r {
	case RuleMissingFields:
		return "missing_fields"
	case RuleFraudKeyword:
		return "fraud_keyword"
	case RuleInjury:
		return "injury"
	case RuleFastTrack:
		return "fast_track"
	case RuleDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Decision is the result of routing one document.
type Decision struct {
	Route     string
	Reasoning string
	Rule      Rule
}

// Config holds the routing knobs.
type Config struct {
	// Keywords are searched in the description in order; the first hit wins.
	Keywords []string `yaml:"keywords"`
	// FastTrackThreshold is exclusive: damage must be strictly below it.
	FastTrackThreshold int64 `yaml:"fastTrackThreshold"`
	// ThousandsSeparators are stripped from the damage amount before parsing.
	ThousandsSeparators string `yaml:"thousandsSeparators"`
}

func DefaultConfig() Config {
	return Config{
		Keywords:            []string{"fraud", "staged", "inconsistent"},
		FastTrackThreshold:  25000,
		ThousandsSeparators: ",",
	}
}

// Engine evaluates the routing rules. It holds no mutable state.
type Engine struct {
	keywords   []string
	threshold  int64
	separators string
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.FastTrackThreshold <= 0 {
		return nil, fmt.Errorf("routing: fastTrackThreshold must be > 0, got %d", cfg.FastTrackThreshold)
	}
	e := &Engine{threshold: cfg.FastTrackThreshold, separators: cfg.ThousandsSeparators}
	for _, kw := range cfg.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			return nil, fmt.Errorf("routing: empty keyword")
		}
		e.keywords = append(e.keywords, kw)
	}
	return e, nil
}

// Route applies the rules in order; the first that matches decides.
func (e *Engine) Route(fields *extract.FieldMap, missing []string) Decision {
	if len(missing) > 0 {
		return Decision{
			Route:     RouteManualReview,
			Reasoning: "Mandatory fields missing: " + strings.Join(missing, ", "),
			Rule:      RuleMissingFields,
		}
	}

	desc := strings.ToLower(fields.GetOrEmpty(constants.FieldDescription))
	for _, kw := range e.keywords {
		if strings.Contains(desc, kw) {
			return Decision{
				Route:     RouteInvestigation,
				Reasoning: "Fraud keyword detected: " + kw,
				Rule:      RuleFraudKeyword,
			}
		}
	}

	if ct, ok := fields.Get(constants.FieldClaimType); ok && ct == string(constants.ClaimTypeInjury) {
		return Decision{
			Route:     RouteSpecialist,
			Reasoning: "Injury claim requires specialist",
			Rule:      RuleInjury,
		}
	}

	if raw, ok := fields.Get(constants.FieldEstimatedDamage); ok {
		if amount, ok := e.parseAmount(raw); ok && amount < e.threshold {
			return Decision{
				Route:     RouteFastTrack,
				Reasoning: "Damage below fast-track threshold",
				Rule:      RuleFastTrack,
			}
		}
	}

	return Decision{
		Route:     RouteManualReview,
		Reasoning: "Default routing applied",
		Rule:      RuleDefault,
	}
}

// parseAmount strips separators and parses a whole number. A malformed
// amount reports false.
func (e *Engine) parseAmount(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if e.separators != "" {
		s = strings.Map(func(r rune) rune {
			if strings.ContainsRune(e.separators, r) {
				return -1
			}
			return r
		}, s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
