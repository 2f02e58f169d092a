package timeline

import (
	"context"
	"sort"
	"strings"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ErrDuplicateEventID indicates two source rows produced the same event id.
// This is a logic-invariant violation and aborts the patient's run.
var ErrDuplicateEventID = goerr.New("duplicate event id")

// Builder normalizes heterogeneous source rows into an ordered Timeline.
// Building is a deterministic, pure function of its inputs: identical rows
// produce byte-identical Timelines.
type Builder struct {
	diagnosticWindowDays   int
	postSurgicalWindowDays int
	surveillanceFallback   int
}

type Option func(*Builder)

// WithDiagnosticWindow overrides the fallback diagnostic window used when no
// surgery milestone exists (default 90 days)
func WithDiagnosticWindow(days int) Option {
	return func(b *Builder) {
		b.diagnosticWindowDays = days
	}
}

// WithPostSurgicalWindow overrides the post-surgical window used when no
// treatment start exists (default 180 days)
func WithPostSurgicalWindow(days int) Option {
	return func(b *Builder) {
		b.postSurgicalWindowDays = days
	}
}

// WithSurveillanceFallback overrides the treatment-duration fallback used
// when no treatment-end milestone exists (default 365 days)
func WithSurveillanceFallback(days int) Option {
	return func(b *Builder) {
		b.surveillanceFallback = days
	}
}

func New(opts ...Option) *Builder {
	b := &Builder{
		diagnosticWindowDays:   90,
		postSurgicalWindowDays: 180,
		surveillanceFallback:   365,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build constructs the ordered Timeline for one patient from raw rows.
// Rows with unparseable or missing dates are dropped with a logged reason;
// rows with unknown types are kept under a generic "Other X" category.
func (b *Builder) Build(ctx context.Context, patientID types.PatientID, rows []*model.RawRow) (*model.Timeline, error) {
	logger := logging.From(ctx)

	events := make([]*model.Event, 0, len(rows))
	dropped := 0

	for _, row := range rows {
		ev, err := b.normalizeRow(patientID, row)
		if err != nil {
			dropped++
			logger.Warn("dropping source row",
				"reason", err.Error(),
				"eventID", row.EventID,
				"sourceView", row.SourceView,
			)
			continue
		}
		events = append(events, ev)
	}

	// Sole ordering key is the event date; ties break by type then id
	sort.Slice(events, func(i, j int) bool {
		return events[i].Less(events[j])
	})

	seen := make(map[types.EventID]struct{}, len(events))
	for _, ev := range events {
		if _, exists := seen[ev.ID]; exists {
			return nil, goerr.Wrap(ErrDuplicateEventID, "timeline invariant violated",
				goerr.V("eventID", ev.ID), goerr.V("patientID", patientID))
		}
		seen[ev.ID] = struct{}{}
	}

	tl := &model.Timeline{
		PatientID:   patientID,
		Events:      events,
		Milestones:  computeMilestones(events),
		DroppedRows: dropped,
	}

	b.assignPhases(tl)

	return tl, nil
}

func (b *Builder) normalizeRow(patientID types.PatientID, row *model.RawRow) (*model.Event, error) {
	if row.EventID == "" {
		return nil, goerr.New("missing event id")
	}

	date, err := types.ParseDate(row.Date)
	if err != nil {
		return nil, goerr.Wrap(err, "unparseable event date")
	}

	ev := &model.Event{
		ID:           types.EventID(row.EventID),
		PatientID:    patientID,
		Date:         date,
		Category:     row.Category,
		Subtype:      row.Subtype,
		Description:  row.Description,
		Status:       row.Status,
		SourceView:   row.SourceView,
		SourceDomain: row.SourceDomain,
		Codes:        row.Codes,
		Metadata:     row.Metadata,
	}

	if t, err := types.ParseEventType(strings.ToLower(row.Type)); err == nil {
		ev.Type = t
	} else {
		// Unknown classification: keep the row rather than dropping it
		ev.Type = types.EventType(strings.ToLower(row.Type))
		if ev.Category == "" {
			ev.Category = "Other " + row.Type
		}
	}

	return ev, nil
}
