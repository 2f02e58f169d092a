package model

import (
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// Event represents one clinical occurrence on a patient's timeline
type Event struct {
	ID           types.EventID
	PatientID    types.PatientID
	Date         types.Date
	Type         types.EventType
	Category     string
	Subtype      string
	Description  string `masq:"phi"`
	Status       string
	SourceView   string
	SourceDomain string
	Codes        map[string][]string // code system -> codes
	Metadata     map[string]string
	Phase        types.DiseasePhase
}

// Less reports whether e sorts before other. The event date is the sole
// ordering key; ties break by event type name, then by id, so rebuilt
// timelines are byte-identical.
func (x *Event) Less(other *Event) bool {
	if x.Date.Before(other.Date) {
		return true
	}
	if other.Date.Before(x.Date) {
		return false
	}
	if x.Type != other.Type {
		return x.Type < other.Type
	}
	return x.ID < other.ID
}

// Clone returns a deep copy of the event
func (x *Event) Clone() *Event {
	copied := *x
	if x.Codes != nil {
		copied.Codes = make(map[string][]string, len(x.Codes))
		for k, v := range x.Codes {
			vs := make([]string, len(v))
			copy(vs, v)
			copied.Codes[k] = vs
		}
	}
	if x.Metadata != nil {
		copied.Metadata = make(map[string]string, len(x.Metadata))
		for k, v := range x.Metadata {
			copied.Metadata[k] = v
		}
	}
	return &copied
}

// RawRow is the minimal common schema every upstream source view maps its
// rows into before timeline construction
type RawRow struct {
	EventID      string
	PatientID    string
	Date         string // raw date or timestamp text, parsed defensively
	Type         string
	Category     string
	Subtype      string
	Description  string `masq:"phi"`
	Status       string
	SourceView   string
	SourceDomain string
	Codes        map[string][]string
	Metadata     map[string]string
}
