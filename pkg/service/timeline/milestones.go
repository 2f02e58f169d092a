package timeline

import (
	"strings"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// progressionMarkers are category/subtype/status substrings that mark a
// progression or recurrence event
var progressionMarkers = []string{"progression", "recurrence", "relapse"}

func isProgression(ev *model.Event) bool {
	for _, marker := range progressionMarkers {
		if strings.Contains(strings.ToLower(ev.Category), marker) ||
			strings.Contains(strings.ToLower(ev.Subtype), marker) ||
			strings.Contains(strings.ToLower(ev.Status), marker) {
			return true
		}
	}
	return false
}

func isTreatment(ev *model.Event) bool {
	return ev.Type == types.EventTypeMedication || ev.Type == types.EventTypeRadiation
}

// computeMilestones derives the anchor dates of the clinical course. Each
// milestone is the minimum event date matching its predicate, except
// treatment end which is the maximum.
func computeMilestones(events []*model.Event) model.Milestones {
	var m model.Milestones

	for _, ev := range events {
		switch {
		case ev.Type == types.EventTypeDiagnosis:
			m.FirstDiagnosis = types.MinDate(m.FirstDiagnosis, ev.Date)
		case ev.Type == types.EventTypeProcedure:
			m.FirstSurgery = types.MinDate(m.FirstSurgery, ev.Date)
		case ev.Type == types.EventTypeMedication:
			m.FirstTreatment = types.MinDate(m.FirstTreatment, ev.Date)
		case ev.Type == types.EventTypeRadiation:
			m.FirstRadiation = types.MinDate(m.FirstRadiation, ev.Date)
		}

		if isTreatment(ev) {
			m.TreatmentEnd = types.MaxDate(m.TreatmentEnd, ev.Date)
		}
		if isProgression(ev) {
			m.FirstProgression = types.MinDate(m.FirstProgression, ev.Date)
		}
	}

	return m
}

// treatmentWindows returns the ordered [start, next-start) windows derived
// from medication start dates. The last window extends to the treatment-end
// milestone.
func treatmentWindows(events []*model.Event, m model.Milestones, fallbackDays int) []window {
	var starts []types.Date
	seen := make(map[types.Date]struct{})
	for _, ev := range events {
		if ev.Type != types.EventTypeMedication {
			continue
		}
		if _, ok := seen[ev.Date]; ok {
			continue
		}
		seen[ev.Date] = struct{}{}
		starts = append(starts, ev.Date)
	}

	// events are already sorted, so starts are ascending
	windows := make([]window, 0, len(starts))
	for i, start := range starts {
		w := window{from: start}
		if i+1 < len(starts) {
			w.to = starts[i+1]
			w.toExclusive = true
		} else if m.TreatmentEnd.IsValid() {
			w.to = m.TreatmentEnd
		} else {
			w.to = start.AddDays(fallbackDays)
		}
		windows = append(windows, w)
	}
	return windows
}

type window struct {
	from        types.Date
	to          types.Date
	toExclusive bool
}

func (w window) contains(d types.Date) bool {
	if d.Before(w.from) {
		return false
	}
	if w.toExclusive {
		return d.Before(w.to)
	}
	return !d.After(w.to)
}
