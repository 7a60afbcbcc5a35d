package extract

import (
	"strings"

	"github.com/joseph-ayodele/fnol-triage/constants"
)

// FieldSpec describes how one field is pulled from the document.
type FieldSpec struct {
	Name string `yaml:"name"`
	// Patterns are tried in priority order; each must have exactly one capture group.
	// They are matched case-insensitively against single lines.
	Patterns []string `yaml:"patterns"`
	// Optional fields never count as missing.
	Optional bool `yaml:"optional,omitempty"`
	// Default is substituted when nothing matched.
	Default string `yaml:"default,omitempty"`
	// DefaultFrom copies another (earlier) field's value when nothing matched.
	DefaultFrom string `yaml:"defaultFrom,omitempty"`
	// Lowercase folds accepted values to lower case.
	Lowercase bool `yaml:"lowercase,omitempty"`
}

// DefaultFields is the built-in FNOL field catalogue, in result order.
func DefaultFields() []FieldSpec {
	claimTypes := strings.Join(constants.ClaimTypes(), "|")
	return []FieldSpec{
		{Name: constants.FieldPolicyNumber, Patterns: []string{
			`POLICY NUMBER[:\s]+([A-Z0-9\-]+)`,
		}},
		{Name: constants.FieldPolicyholderName, Patterns: []string{
			`NAME OF INSURED[:\s]+(.+)`,
			`Policyholder Name[:\s]+(.+)`,
		}},
		{Name: constants.FieldEffectiveDates, Optional: true, Patterns: []string{
			`Effective Dates[:\s]+(.+)`,
		}},
		{Name: constants.FieldDateOfLoss, Patterns: []string{
			`DATE OF LOSS[:\s]+([0-9\-/]+)`,
		}},
		{Name: constants.FieldTimeOfLoss, Optional: true, Patterns: []string{
			`TIME OF LOSS[:\s]+(.+)`,
		}},
		{Name: constants.FieldLocation, Patterns: []string{
			`LOCATION OF LOSS[:\s]+(.+)`,
		}},
		{Name: constants.FieldDescription, Patterns: []string{
			`DESCRIPTION OF ACCIDENT[:\s]+(.+)`,
		}},
		{Name: constants.FieldClaimant, Patterns: []string{
			`CLAIMANT NAME[:\s]+(.+)`,
			`NAME OF INSURED[:\s]+(.+)`,
		}},
		{Name: constants.FieldThirdParties, Optional: true, Patterns: []string{
			`Third Parties[:\s]+(.+)`,
		}},
		{Name: constants.FieldContactDetails, Optional: true, Patterns: []string{
			`PHONE[:\s]+(.+)`,
			`EMAIL[:\s]+(.+)`,
		}},
		{Name: constants.FieldAssetID, Patterns: []string{
			`VIN[:\s]+([A-Z0-9]+)`,
			`Asset ID[:\s]+(.+)`,
		}},
		// Default for automobile FNOL; can mask a genuinely missing asset type.
		{Name: constants.FieldAssetType, Default: string(constants.ClaimTypeVehicle), Patterns: []string{
			`Asset Type[:\s]+(.+)`,
		}},
		{Name: constants.FieldEstimatedDamage, Patterns: []string{
			`ESTIMATE AMOUNT[:\s]+\$?([0-9,]+)`,
			`Estimated Damage Amount[:\s]+\$?([0-9,]+)`,
		}},
		{Name: constants.FieldClaimType, Default: string(constants.ClaimTypeVehicle), Lowercase: true, Patterns: []string{
			`CLAIM TYPE[:\s]+(` + claimTypes + `)\b`,
		}},
		{Name: constants.FieldInitialEstimate, DefaultFrom: constants.FieldEstimatedDamage, Patterns: []string{
			`Initial Estimate[:\s]+\$?([0-9,]+)`,
		}},
		{Name: constants.FieldAttachments, Optional: true, Patterns: []string{
			`Attachments[:\s]+(.+)`,
		}},
	}
}

// OptionalFieldNames returns the names of optional fields in specs.
func OptionalFieldNames(specs []FieldSpec) []string {
	var out []string
	for _, s := range specs {
		if s.Optional {
			out = append(out, s.Name)
		}
	}
	return out
}
