package extract

// MissingAnalyzer reports mandatory fields that have no value.
type MissingAnalyzer struct {
	optional map[string]struct{}
}

// NewMissingAnalyzer treats every name in optional as never-missing.
func NewMissingAnalyzer(optional []string) *MissingAnalyzer {
	a := &MissingAnalyzer{optional: make(map[string]struct{}, len(optional))}
	for _, n := range optional {
		a.optional[n] = struct{}{}
	}
	return a
}

// Missing lists absent mandatory fields in field-map order. The result is
// never nil, so it encodes as [] rather than null.
func (a *MissingAnalyzer) Missing(m *FieldMap) []string {
	out := []string{}
	if m == nil {
		return out
	}
	for _, n := range m.names {
		if _, opt := a.optional[n]; opt {
			continue
		}
		if !m.values[n].Present {
			out = append(out, n)
		}
	}
	return out
}
