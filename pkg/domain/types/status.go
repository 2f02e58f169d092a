package types

// DiseaseStatus is an extracted disease-burden status at a point in time
type DiseaseStatus string

const (
	StatusIncreased  DiseaseStatus = "increased"
	StatusDecreased  DiseaseStatus = "decreased"
	StatusStable     DiseaseStatus = "stable"
	StatusNoEvidence DiseaseStatus = "no_evidence_of_disease"
	StatusNewFinding DiseaseStatus = "new_finding"
	StatusUnknown    DiseaseStatus = "unknown"
)

// AllDiseaseStatuses returns all valid disease statuses
func AllDiseaseStatuses() []DiseaseStatus {
	return []DiseaseStatus{
		StatusIncreased,
		StatusDecreased,
		StatusStable,
		StatusNoEvidence,
		StatusNewFinding,
		StatusUnknown,
	}
}

// IsValid checks if the disease status is valid
func (x DiseaseStatus) IsValid() bool {
	switch x {
	case StatusIncreased,
		StatusDecreased,
		StatusStable,
		StatusNoEvidence,
		StatusNewFinding,
		StatusUnknown:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as StatusUnknown
func (x DiseaseStatus) Normalize() DiseaseStatus {
	if x == "" {
		return StatusUnknown
	}
	return x
}

// Evidence reports whether the status indicates measurable disease
func (x DiseaseStatus) Evidence() bool {
	switch x {
	case StatusIncreased, StatusDecreased, StatusStable, StatusNewFinding:
		return true
	default:
		return false
	}
}

// String returns the string representation of the disease status
func (x DiseaseStatus) String() string {
	return string(x)
}
