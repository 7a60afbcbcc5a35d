package constants

// FNOL field names, as they appear in result records.
const (
	FieldPolicyNumber     = "policyNumber"
	FieldPolicyholderName = "policyholderName"
	FieldEffectiveDates   = "effectiveDates"
	FieldDateOfLoss       = "dateOfLoss"
	FieldTimeOfLoss       = "timeOfLoss"
	FieldLocation         = "location"
	FieldDescription      = "description"
	FieldClaimant         = "claimant"
	FieldThirdParties     = "thirdParties"
	FieldContactDetails   = "contactDetails"
	FieldAssetID          = "assetID"
	FieldAssetType        = "assetType"
	FieldEstimatedDamage  = "estimatedDamage"
	FieldClaimType        = "claimType"
	FieldInitialEstimate  = "initialEstimate"
	FieldAttachments      = "attachments"
)
