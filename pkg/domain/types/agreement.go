package types

// AgreementLevel classifies how well independent extractions of the same fact
// agree with each other
type AgreementLevel string

const (
	AgreementFull       AgreementLevel = "full"
	AgreementPartial    AgreementLevel = "partial"
	AgreementDiscrepant AgreementLevel = "discrepant"
)

// IsValid checks if the agreement level is valid
func (x AgreementLevel) IsValid() bool {
	switch x {
	case AgreementFull, AgreementPartial, AgreementDiscrepant:
		return true
	default:
		return false
	}
}

// String returns the string representation of the agreement level
func (x AgreementLevel) String() string {
	return string(x)
}
