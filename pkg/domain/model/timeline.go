package model

import (
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// Milestones holds the derived anchor dates of a patient's clinical course.
// Invalid (zero) dates mean the milestone never occurred.
type Milestones struct {
	FirstDiagnosis   types.Date
	FirstSurgery     types.Date
	FirstTreatment   types.Date
	TreatmentEnd     types.Date
	FirstRadiation   types.Date
	FirstProgression types.Date
}

// Timeline is an ordered, immutable-once-built sequence of Events for one
// patient plus derived milestones. It is rebuilt fresh from source rows on
// each run and never mutated in place.
type Timeline struct {
	PatientID  types.PatientID
	Events     []*Event
	Milestones Milestones
	// DroppedRows counts source rows discarded for unparseable dates
	DroppedRows int
}

// EventsOfType returns the ordered subset of events with the given type
func (x *Timeline) EventsOfType(t types.EventType) []*Event {
	var out []*Event
	for _, ev := range x.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// AgeInDays returns the day offset of d from the first diagnosis, or false
// when no diagnosis milestone exists
func (x *Timeline) AgeInDays(d types.Date) (int, bool) {
	if !x.Milestones.FirstDiagnosis.IsValid() {
		return 0, false
	}
	return types.DaysBetween(x.Milestones.FirstDiagnosis, d), true
}

// Window returns events within [from, to] inclusive, in timeline order
func (x *Timeline) Window(from, to types.Date) []*Event {
	var out []*Event
	for _, ev := range x.Events {
		if ev.Date.Before(from) || ev.Date.After(to) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
