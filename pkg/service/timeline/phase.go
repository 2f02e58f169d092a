package timeline

import (
	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// assignPhases labels every event with its disease phase. Rules are
// evaluated in a fixed order and the first match wins, which resolves
// overlapping windows deterministically.
func (b *Builder) assignPhases(tl *model.Timeline) {
	m := tl.Milestones
	windows := treatmentWindows(tl.Events, m, b.surveillanceFallback)

	for _, ev := range tl.Events {
		ev.Phase = b.phaseOf(ev.Date, m, windows)
	}
}

func (b *Builder) phaseOf(d types.Date, m model.Milestones, windows []window) types.DiseasePhase {
	// 1. pre-diagnosis
	if m.FirstDiagnosis.IsValid() && d.Before(m.FirstDiagnosis) {
		return types.PhasePreDiagnosis
	}

	// 2. diagnostic: [diagnosis, surgery) or [diagnosis, diagnosis+90d].
	// The surgery bound is exclusive so an event exactly on the first
	// surgery date classifies post-surgical.
	if m.FirstDiagnosis.IsValid() && !d.Before(m.FirstDiagnosis) {
		if m.FirstSurgery.IsValid() {
			if d.Before(m.FirstSurgery) {
				return types.PhaseDiagnostic
			}
		} else if !d.After(m.FirstDiagnosis.AddDays(b.diagnosticWindowDays)) {
			return types.PhaseDiagnostic
		}
	}

	// 3. post-surgical: [surgery, treatment start) when treatment exists,
	// [surgery, surgery+180d] otherwise
	if m.FirstSurgery.IsValid() && !d.Before(m.FirstSurgery) {
		if m.FirstTreatment.IsValid() {
			if d.Before(m.FirstTreatment) {
				return types.PhasePostSurgical
			}
		} else if !d.After(m.FirstSurgery.AddDays(b.postSurgicalWindowDays)) {
			return types.PhasePostSurgical
		}
	}

	// 4. on-treatment: inside any [medication-start, next-start) window
	for _, w := range windows {
		if w.contains(d) {
			return types.PhaseOnTreatment
		}
	}

	// 5. surveillance: after treatment end (or start+365d fallback), before
	// any progression
	if m.FirstTreatment.IsValid() {
		end := m.TreatmentEnd
		if !end.IsValid() {
			end = m.FirstTreatment.AddDays(b.surveillanceFallback)
		}
		if d.After(end) && (!m.FirstProgression.IsValid() || d.Before(m.FirstProgression)) {
			return types.PhaseSurveillance
		}
	}

	// 6. post-progression
	if m.FirstProgression.IsValid() && !d.Before(m.FirstProgression) {
		return types.PhasePostProgression
	}

	// 7. observation: never treated, past the post-surgical window
	if !m.FirstTreatment.IsValid() && m.FirstSurgery.IsValid() &&
		d.After(m.FirstSurgery.AddDays(b.postSurgicalWindowDays)) {
		return types.PhaseObservation
	}

	return types.PhaseUnknown
}
