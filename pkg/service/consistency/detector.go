package consistency

import (
	"context"
	"fmt"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
)

// Detector scans a time-ordered sequence of extracted status values and
// flags transitions that violate plausibility rules. Only consecutive-pair
// and fixed-length windowed patterns are evaluated; detected inconsistencies
// are reported, never auto-corrected.
type Detector struct {
	rapidImprovementDays int
	progressionDays      int
}

type Option func(*Detector)

// WithRapidImprovementThreshold overrides the rapid-improvement day gap
// (default 14)
func WithRapidImprovementThreshold(days int) Option {
	return func(d *Detector) {
		d.rapidImprovementDays = days
	}
}

// WithProgressionThreshold overrides the unexpected-progression day gap
// (default 90)
func WithProgressionThreshold(days int) Option {
	return func(d *Detector) {
		d.progressionDays = days
	}
}

func New(opts ...Option) *Detector {
	d := &Detector{
		rapidImprovementDays: 14,
		progressionDays:      90,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect walks the chronological observations and returns every flagged
// inconsistency in order. The timeline supplies the "was there a procedure
// between these two observations" signal.
func (d *Detector) Detect(ctx context.Context, tl *model.Timeline, observations []*model.StatusObservation) []*model.Inconsistency {
	logger := logging.From(ctx)

	var found []*model.Inconsistency

	for i := 1; i < len(observations); i++ {
		prior, current := observations[i-1], observations[i]
		gap := types.DaysBetween(prior.Date, current.Date)
		intervening := procedureBetween(tl, prior.Date, current.Date)

		if inc := d.rapidImprovement(prior, current, gap, intervening); inc != nil {
			found = append(found, inc)
		}
		if inc := d.unexpectedProgression(prior, current, gap); inc != nil {
			found = append(found, inc)
		}
	}

	// three-point oscillation pattern
	for i := 2; i < len(observations); i++ {
		first, mid, last := observations[i-2], observations[i-1], observations[i]
		if first.Status != types.StatusNoEvidence || last.Status != types.StatusNoEvidence {
			continue
		}
		if !mid.Status.Evidence() {
			continue
		}
		if procedureBetween(tl, first.Date, last.Date) {
			continue
		}
		found = append(found, &model.Inconsistency{
			Kind:     types.KindIllogicalOscillation,
			Severity: types.SeverityHigh,
			Description: fmt.Sprintf("disease-free status at %s and %s brackets %s with no intervening procedure",
				first.Date, last.Date, mid.Status),
			Prior:    *mid,
			Current:  *last,
			DayGap:   types.DaysBetween(first.Date, last.Date),
			Escalate: true,
		})
	}

	if len(found) > 0 {
		logger.Info("inconsistencies detected",
			"patientID", tl.PatientID,
			"count", len(found),
		)
	}

	return found
}

func (d *Detector) rapidImprovement(prior, current *model.StatusObservation, gap int, intervening bool) *model.Inconsistency {
	if prior.Status != types.StatusIncreased || current.Status != types.StatusDecreased {
		return nil
	}
	if gap >= d.rapidImprovementDays || intervening {
		return nil
	}
	return &model.Inconsistency{
		Kind:     types.KindRapidImprovement,
		Severity: types.SeverityHigh,
		Description: fmt.Sprintf("disease burden decreased %d days after increase with no intervening procedure",
			gap),
		Prior:    *prior,
		Current:  *current,
		DayGap:   gap,
		Escalate: true,
	}
}

func (d *Detector) unexpectedProgression(prior, current *model.StatusObservation, gap int) *model.Inconsistency {
	if prior.Status != types.StatusNoEvidence {
		return nil
	}
	if current.Status != types.StatusIncreased && current.Status != types.StatusNewFinding {
		return nil
	}
	if gap >= d.progressionDays {
		return nil
	}
	return &model.Inconsistency{
		Kind:     types.KindUnexpectedProgression,
		Severity: types.SeverityMedium,
		Description: fmt.Sprintf("%s reported %d days after documented disease-free status",
			current.Status, gap),
		Prior:   *prior,
		Current: *current,
		DayGap:  gap,
	}
}

// procedureBetween reports whether a procedure event falls strictly between
// the two dates
func procedureBetween(tl *model.Timeline, from, to types.Date) bool {
	for _, ev := range tl.Events {
		if ev.Type != types.EventTypeProcedure {
			continue
		}
		if ev.Date.After(from) && ev.Date.Before(to) {
			return true
		}
	}
	return false
}
