package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Strategy holds the line-scanning knobs.
type Strategy struct {
	// LookaheadLines is how many following lines are tried when a label
	// matches but its inline value is rejected.
	LookaheadLines int `yaml:"lookaheadLines"`
}

// Config is everything a FieldExtractor needs.
type Config struct {
	Classifier ClassifierConfig
	Fields     []FieldSpec
	Strategy   Strategy
}

// DefaultConfig returns the built-in catalogue and classifier.
func DefaultConfig() Config {
	return Config{
		Classifier: DefaultClassifierConfig(),
		Fields:     DefaultFields(),
		Strategy:   Strategy{LookaheadLines: 1},
	}
}

type compiledField struct {
	spec     FieldSpec
	patterns []*regexp.Regexp
}

// FieldExtractor turns normalized document text into a FieldMap.
type FieldExtractor struct {
	classifier *Classifier
	fields     []compiledField
	names      []string
	optional   []string
	lookahead  int
}

// NewFieldExtractor validates cfg and compiles every pattern.
func NewFieldExtractor(cfg Config) (*FieldExtractor, error) {
	if len(cfg.Fields) == 0 {
		return nil, fmt.Errorf("extract: no fields configured")
	}
	if cfg.Strategy.LookaheadLines < 0 {
		return nil, fmt.Errorf("extract: lookaheadLines must be >= 0, got %d", cfg.Strategy.LookaheadLines)
	}

	e := &FieldExtractor{
		classifier: NewClassifier(cfg.Classifier),
		lookahead:  cfg.Strategy.LookaheadLines,
	}
	seen := make(map[string]bool, len(cfg.Fields))
	for _, f := range cfg.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("extract: field with empty name")
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("extract: duplicate field %q", f.Name)
		}
		if f.DefaultFrom != "" && !seen[f.DefaultFrom] {
			return nil, fmt.Errorf("extract: field %q defaults from %q, which is not an earlier field", f.Name, f.DefaultFrom)
		}
		if f.DefaultFrom != "" && f.Default != "" {
			return nil, fmt.Errorf("extract: field %q sets both default and defaultFrom", f.Name)
		}
		res, err := CompilePatterns(f.Patterns)
		if err != nil {
			return nil, fmt.Errorf("extract: field %q: %w", f.Name, err)
		}
		seen[f.Name] = true
		e.fields = append(e.fields, compiledField{spec: f, patterns: res})
		e.names = append(e.names, f.Name)
		if f.Optional {
			e.optional = append(e.optional, f.Name)
		}
	}
	return e, nil
}

// MustFieldExtractor is NewFieldExtractor for configurations known to be valid.
func MustFieldExtractor(cfg Config) *FieldExtractor {
	e, err := NewFieldExtractor(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// CompilePatterns compiles label patterns case-insensitively. Each pattern
// must have exactly one capture group.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no patterns")
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		if re.NumSubexp() != 1 {
			return nil, fmt.Errorf("pattern %q: want exactly one capture group, got %d", p, re.NumSubexp())
		}
		out = append(out, re)
	}
	return out, nil
}

// Names returns the field names in result order.
func (e *FieldExtractor) Names() []string { return append([]string(nil), e.names...) }

// OptionalFields returns the names of fields that never count as missing.
func (e *FieldExtractor) OptionalFields() []string { return append([]string(nil), e.optional...) }

func (e *FieldExtractor) Classifier() *Classifier { return e.classifier }

// Extract scans text line by line for the first accepted value of any pattern.
// Patterns are tried in order on each line, so an earlier line always wins
// over a later one.
func (e *FieldExtractor) Extract(text string, patterns []*regexp.Regexp) (string, bool) {
	return e.scan(splitLines(text), patterns)
}

// ExtractFields runs every catalogue field over text and applies defaults.
// The result always has an entry for every field.
func (e *FieldExtractor) ExtractFields(text string) *FieldMap {
	lines := splitLines(text)
	m := NewFieldMap(e.names...)
	for _, f := range e.fields {
		if v, ok := e.scan(lines, f.patterns); ok {
			if f.spec.Lowercase {
				v = strings.ToLower(v)
			}
			m.Set(f.spec.Name, v)
			continue
		}
		switch {
		case f.spec.Default != "":
			m.setDefault(f.spec.Name, f.spec.Default)
		case f.spec.DefaultFrom != "":
			if src, ok := m.Get(f.spec.DefaultFrom); ok {
				m.setDefault(f.spec.Name, src)
			}
		}
	}
	return m
}

func (e *FieldExtractor) scan(lines []string, patterns []*regexp.Regexp) (string, bool) {
	for i, line := range lines {
		for _, re := range patterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if v := strings.TrimSpace(m[1]); e.classifier.Accepts(v) {
				return v, true
			}
			if v, ok := e.scanAhead(lines, i); ok {
				return v, true
			}
		}
	}
	return "", false
}

// scanAhead looks at up to e.lookahead lines after the label line. A line that
// itself looks like a label ends the search.
func (e *FieldExtractor) scanAhead(lines []string, i int) (string, bool) {
	for j := i + 1; j <= i+e.lookahead && j < len(lines); j++ {
		next := strings.TrimSpace(lines[j])
		if strings.Contains(next, ":") || e.classifier.ContainsLexiconWord(next) {
			return "", false
		}
		if e.classifier.Accepts(next) {
			return next, true
		}
	}
	return "", false
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
