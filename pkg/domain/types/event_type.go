package types

import "fmt"

// EventType classifies a clinical event
type EventType string

const (
	EventTypeDiagnosis   EventType = "diagnosis"
	EventTypeProcedure   EventType = "procedure"
	EventTypeImaging     EventType = "imaging"
	EventTypeMedication  EventType = "medication"
	EventTypeVisit       EventType = "visit"
	EventTypeMeasurement EventType = "measurement"
	EventTypeAssessment  EventType = "assessment"
	EventTypeLabTest     EventType = "lab_test"
	EventTypeRadiation   EventType = "radiation"
)

// AllEventTypes returns all valid event types
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeDiagnosis,
		EventTypeProcedure,
		EventTypeImaging,
		EventTypeMedication,
		EventTypeVisit,
		EventTypeMeasurement,
		EventTypeAssessment,
		EventTypeLabTest,
		EventTypeRadiation,
	}
}

// IsValid checks if the event type is valid
func (x EventType) IsValid() bool {
	switch x {
	case EventTypeDiagnosis,
		EventTypeProcedure,
		EventTypeImaging,
		EventTypeMedication,
		EventTypeVisit,
		EventTypeMeasurement,
		EventTypeAssessment,
		EventTypeLabTest,
		EventTypeRadiation:
		return true
	default:
		return false
	}
}

// String returns the string representation of the event type
func (x EventType) String() string {
	return string(x)
}

// ParseEventType parses a string into an EventType
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid event type: %s", s)
	}
	return t, nil
}
