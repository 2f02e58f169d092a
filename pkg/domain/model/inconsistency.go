package model

import (
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// StatusObservation is one time-ordered extracted status the detector scans
type StatusObservation struct {
	Date       types.Date
	Status     types.DiseaseStatus
	DocumentID types.DocumentID
}

// Inconsistency flags a temporally implausible transition between two
// observations. Produced, never mutated; resolution is delegated to the
// adjudication step.
type Inconsistency struct {
	Kind        types.InconsistencyKind
	Severity    types.Severity
	Description string
	Prior       StatusObservation
	Current     StatusObservation
	DayGap      int
	Escalate    bool
}
