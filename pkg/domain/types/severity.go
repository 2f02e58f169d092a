package types

// Severity grades a detected inconsistency
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IsValid checks if the severity is valid
func (x Severity) IsValid() bool {
	switch x {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity
func (x Severity) String() string {
	return string(x)
}

// InconsistencyKind names a plausibility rule that fired
type InconsistencyKind string

const (
	KindRapidImprovement      InconsistencyKind = "rapid_improvement"
	KindUnexpectedProgression InconsistencyKind = "unexpected_progression"
	KindIllogicalOscillation  InconsistencyKind = "illogical_oscillation"
)

// String returns the string representation of the inconsistency kind
func (x InconsistencyKind) String() string {
	return string(x)
}
