package types

// DiseasePhase labels where in the diagnosis/treatment/surveillance arc an
// event falls. Computed deterministically from milestone offsets.
type DiseasePhase string

const (
	PhasePreDiagnosis    DiseasePhase = "pre_diagnosis"
	PhaseDiagnostic      DiseasePhase = "diagnostic"
	PhasePostSurgical    DiseasePhase = "post_surgical"
	PhaseOnTreatment     DiseasePhase = "on_treatment"
	PhaseSurveillance    DiseasePhase = "surveillance"
	PhasePostProgression DiseasePhase = "post_progression"
	PhaseObservation     DiseasePhase = "observation"
	PhaseUnknown         DiseasePhase = "unknown"
)

// IsValid checks if the disease phase is valid
func (x DiseasePhase) IsValid() bool {
	switch x {
	case PhasePreDiagnosis,
		PhaseDiagnostic,
		PhasePostSurgical,
		PhaseOnTreatment,
		PhaseSurveillance,
		PhasePostProgression,
		PhaseObservation,
		PhaseUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the disease phase
func (x DiseasePhase) String() string {
	return string(x)
}
