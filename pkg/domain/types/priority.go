package types

// PriorityReason is the clinical-event category that caused a document to be
// selected for extraction
type PriorityReason string

const (
	ReasonPostSurgery       PriorityReason = "post_surgery"
	ReasonPostImaging       PriorityReason = "post_imaging"
	ReasonPreMedicationChg  PriorityReason = "pre_medication_change"
	ReasonPostMedicationChg PriorityReason = "post_medication_change"
	ReasonMostRecent        PriorityReason = "most_recent"
)

// AllPriorityReasons returns reasons in precedence order. When a document
// would be selected by more than one trigger, the earliest reason in this
// order wins.
func AllPriorityReasons() []PriorityReason {
	return []PriorityReason{
		ReasonPostSurgery,
		ReasonPostImaging,
		ReasonPreMedicationChg,
		ReasonPostMedicationChg,
		ReasonMostRecent,
	}
}

// Precedence returns the fixed precedence rank of the reason (lower wins)
func (x PriorityReason) Precedence() int {
	for i, r := range AllPriorityReasons() {
		if r == x {
			return i
		}
	}
	return len(AllPriorityReasons())
}

// IsValid checks if the priority reason is valid
func (x PriorityReason) IsValid() bool {
	return x.Precedence() < len(AllPriorityReasons())
}

// String returns the string representation of the priority reason
func (x PriorityReason) String() string {
	return string(x)
}
