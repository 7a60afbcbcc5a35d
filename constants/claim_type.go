package constants

type ClaimType string

const (
	ClaimTypeVehicle  ClaimType = "vehicle"
	ClaimTypeInjury   ClaimType = "injury"
	ClaimTypeProperty ClaimType = "property"
)

var allClaimTypes = []ClaimType{
	ClaimTypeVehicle,
	ClaimTypeInjury,
	ClaimTypeProperty,
}

// ClaimTypes returns the enumerated claim types as strings.
func ClaimTypes() []string {
	result := make([]string, len(allClaimTypes))
	for i, ct := range allClaimTypes {
		result[i] = string(ct)
	}
	return result
}
