// Package rules loads the extraction and routing configuration from YAML.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/extract"
	"github.com/joseph-ayodele/fnol-triage/internal/routing"
)

// Rules is the complete triage configuration.
type Rules struct {
	Extract extract.Config
	Routing routing.Config
}

// File is the on-disk shape. Absent keys keep the built-in defaults.
type File struct {
	Lexicon           []string            `yaml:"lexicon,omitempty"`
	Boilerplate       []string            `yaml:"boilerplate,omitempty"`
	PlaceholderChars  *string             `yaml:"placeholderChars,omitempty"`
	UpperRunThreshold *int                `yaml:"upperRunThreshold,omitempty"`
	LookaheadLines    *int                `yaml:"lookaheadLines,omitempty"`
	OptionalFields    []string            `yaml:"optionalFields,omitempty"`
	Fields            []extract.FieldSpec `yaml:"fields,omitempty"`
	Routing           *RoutingFile        `yaml:"routing,omitempty"`
}

type RoutingFile struct {
	Keywords            []string `yaml:"keywords,omitempty"`
	FastTrackThreshold  *int64   `yaml:"fastTrackThreshold,omitempty"`
	ThousandsSeparators *string  `yaml:"thousandsSeparators,omitempty"`
}

// Default returns the built-in rules.
func Default() Rules {
	return Rules{
		Extract: extract.DefaultConfig(),
		Routing: routing.DefaultConfig(),
	}
}

// Load reads and validates a rules file. An empty path yields Default().
func Load(path string) (Rules, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return Rules{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return r, nil
}

// Parse applies a YAML document on top of the defaults and validates the result.
func Parse(data []byte) (Rules, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	r, err := f.apply(Default())
	if err != nil {
		return Rules{}, err
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

func (f File) apply(r Rules) (Rules, error) {
	if f.Lexicon != nil {
		r.Extract.Classifier.Lexicon = f.Lexicon
	}
	if f.Boilerplate != nil {
		r.Extract.Classifier.Boilerplate = f.Boilerplate
	}
	if f.PlaceholderChars != nil {
		r.Extract.Classifier.PlaceholderChars = *f.PlaceholderChars
	}
	if f.UpperRunThreshold != nil {
		r.Extract.Classifier.UpperRunThreshold = *f.UpperRunThreshold
	}
	if f.LookaheadLines != nil {
		r.Extract.Strategy.LookaheadLines = *f.LookaheadLines
	}
	if f.Fields != nil {
		r.Extract.Fields = slices.Clone(f.Fields)
	}
	if f.OptionalFields != nil {
		known := make(map[string]bool, len(r.Extract.Fields))
		for _, fs := range r.Extract.Fields {
			known[fs.Name] = true
		}
		for _, n := range f.OptionalFields {
			if !known[n] {
				return Rules{}, fmt.Errorf("%w: optionalFields: unknown field %q", common.ErrInvalidInput, n)
			}
		}
		fields := slices.Clone(r.Extract.Fields)
		for i := range fields {
			fields[i].Optional = slices.Contains(f.OptionalFields, fields[i].Name)
		}
		r.Extract.Fields = fields
	}
	if f.Routing != nil {
		if f.Routing.Keywords != nil {
			r.Routing.Keywords = f.Routing.Keywords
		}
		if f.Routing.FastTrackThreshold != nil {
			r.Routing.FastTrackThreshold = *f.Routing.FastTrackThreshold
		}
		if f.Routing.ThousandsSeparators != nil {
			r.Routing.ThousandsSeparators = *f.Routing.ThousandsSeparators
		}
	}
	return r, nil
}

// Validate checks that the rules build a working extractor and engine.
func (r Rules) Validate() error {
	_, _, err := r.Build()
	return err
}

// Build constructs the extractor, missing-field analyzer and routing engine.
func (r Rules) Build() (*extract.FieldExtractor, *routing.Engine, error) {
	x, err := extract.NewFieldExtractor(r.Extract)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	eng, err := routing.NewEngine(r.Routing)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return x, eng, nil
}

// File returns the fully populated on-disk form of r.
func (r Rules) File() File {
	placeholder := r.Extract.Classifier.PlaceholderChars
	upper := r.Extract.Classifier.UpperRunThreshold
	lookahead := r.Extract.Strategy.LookaheadLines
	threshold := r.Routing.FastTrackThreshold
	seps := r.Routing.ThousandsSeparators
	return File{
		Lexicon:           r.Extract.Classifier.Lexicon,
		Boilerplate:       r.Extract.Classifier.Boilerplate,
		PlaceholderChars:  &placeholder,
		UpperRunThreshold: &upper,
		LookaheadLines:    &lookahead,
		Fields:            r.Extract.Fields,
		Routing: &RoutingFile{
			Keywords:            r.Routing.Keywords,
			FastTrackThreshold:  &threshold,
			ThousandsSeparators: &seps,
		},
	}
}

// WriteYAML encodes the effective rules.
func (r Rules) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.File()); err != nil {
		return err
	}
	return enc.Close()
}
