package prioritizer

import (
	"context"
	"sort"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
)

// Prioritizer selects the minimal subset of candidate documents worth paying
// the extraction step to read, using proximity windows around clinical
// trigger events. Selection is a pure function of the timeline and the
// candidate pool.
type Prioritizer struct {
	windowDays int
}

type Option func(*Prioritizer)

// WithWindow overrides the selection window around trigger events
// (default 7 days)
func WithWindow(days int) Option {
	return func(p *Prioritizer) {
		p.windowDays = days
	}
}

func New(opts ...Option) *Prioritizer {
	p := &Prioritizer{
		windowDays: 7,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prioritize returns the ordered, deduplicated selection. Triggers are
// processed in fixed precedence order (surgery, imaging, pre-medication,
// post-medication, most-recent); a document already selected by an
// earlier-precedence trigger is skipped for later triggers.
func (p *Prioritizer) Prioritize(ctx context.Context, tl *model.Timeline, pool []*model.CandidateDocument) []*model.PrioritizedDocument {
	logger := logging.From(ctx)

	// Deterministic scan order regardless of pool order
	candidates := make([]*model.CandidateDocument, len(pool))
	copy(candidates, pool)
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Date != candidates[j].Date {
			return candidates[i].Date.Before(candidates[j].Date)
		}
		return candidates[i].DocumentID < candidates[j].DocumentID
	})

	selected := make([]*model.PrioritizedDocument, 0)
	taken := make(map[types.DocumentID]struct{})

	add := func(doc *model.CandidateDocument, reason types.PriorityReason, trigger types.EventID, offset int) {
		if _, dup := taken[doc.DocumentID]; dup {
			return
		}
		taken[doc.DocumentID] = struct{}{}
		selected = append(selected, &model.PrioritizedDocument{
			Document:       doc,
			Reason:         reason,
			TriggerEventID: trigger,
			DayOffset:      offset,
		})
	}

	// post-surgery, then post-imaging
	for _, ev := range tl.EventsOfType(types.EventTypeProcedure) {
		if doc, offset, ok := p.earliestAfter(candidates, ev.Date); ok {
			add(doc, types.ReasonPostSurgery, ev.ID, offset)
		}
	}
	for _, ev := range tl.EventsOfType(types.EventTypeImaging) {
		if doc, offset, ok := p.earliestAfter(candidates, ev.Date); ok {
			add(doc, types.ReasonPostImaging, ev.ID, offset)
		}
	}

	// treatment changes get both sides of the window
	medications := tl.EventsOfType(types.EventTypeMedication)
	for _, ev := range medications {
		if doc, offset, ok := p.latestBefore(candidates, ev.Date); ok {
			add(doc, types.ReasonPreMedicationChg, ev.ID, offset)
		}
	}
	for _, ev := range medications {
		if doc, offset, ok := p.earliestAfter(candidates, ev.Date); ok {
			add(doc, types.ReasonPostMedicationChg, ev.ID, offset)
		}
	}

	// the single most recent candidate is always considered
	if doc, ok := mostRecent(candidates); ok {
		add(doc, types.ReasonMostRecent, "", 0)
	}

	logger.Debug("document prioritization complete",
		"pool", len(pool),
		"selected", len(selected),
	)

	return selected
}

// earliestAfter finds the earliest candidate with date in
// [trigger, trigger+window]
func (p *Prioritizer) earliestAfter(candidates []*model.CandidateDocument, trigger types.Date) (*model.CandidateDocument, int, bool) {
	limit := trigger.AddDays(p.windowDays)
	for _, doc := range candidates {
		if doc.Date.Before(trigger) || doc.Date.After(limit) {
			continue
		}
		return doc, types.DaysBetween(trigger, doc.Date), true
	}
	return nil, 0, false
}

// latestBefore finds the latest candidate with date in
// [trigger-window, trigger)
func (p *Prioritizer) latestBefore(candidates []*model.CandidateDocument, trigger types.Date) (*model.CandidateDocument, int, bool) {
	limit := trigger.AddDays(-p.windowDays)
	for i := len(candidates) - 1; i >= 0; i-- {
		doc := candidates[i]
		if doc.Date.Before(limit) || !doc.Date.Before(trigger) {
			continue
		}
		return doc, -types.DaysBetween(doc.Date, trigger), true
	}
	return nil, 0, false
}

// mostRecent returns the latest candidate overall. Date ties resolve to the
// greatest document id so selection stays deterministic.
func mostRecent(candidates []*model.CandidateDocument) (*model.CandidateDocument, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates[len(candidates)-1], true
}
