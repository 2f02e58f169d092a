package timeline_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/service/timeline"
	"github.com/m-mizutani/gt"
)

func row(id, date, typ, category string) *model.RawRow {
	return &model.RawRow{
		EventID:    id,
		PatientID:  "patient-1",
		Date:       date,
		Type:       typ,
		Category:   category,
		SourceView: "v_test",
	}
}

func TestBuildOrdering(t *testing.T) {
	builder := timeline.New()
	ctx := context.Background()

	rows := []*model.RawRow{
		row("ev-c", "2024-03-10", "imaging", "mri"),
		row("ev-a", "2024-03-10", "diagnosis", "primary_diagnosis"),
		row("ev-b", "2024-02-01T08:30:00Z", "visit", "consult"),
	}

	tl, err := builder.Build(ctx, "patient-1", rows)
	gt.NoError(t, err).Required()
	gt.Array(t, tl.Events).Length(3)

	// date first, then type name breaks the tie
	gt.Value(t, tl.Events[0].ID).Equal(types.EventID("ev-b"))
	gt.Value(t, tl.Events[1].ID).Equal(types.EventID("ev-a"))
	gt.Value(t, tl.Events[2].ID).Equal(types.EventID("ev-c"))

	// timestamp truncated to calendar day
	gt.Value(t, tl.Events[0].Date).Equal(types.Date{Year: 2024, Month: 2, Day: 1})
}

func TestBuildDeterminism(t *testing.T) {
	builder := timeline.New()
	ctx := context.Background()

	make3 := func(order []int) []*model.RawRow {
		all := []*model.RawRow{
			row("ev-1", "2024-01-05", "diagnosis", "primary_diagnosis"),
			row("ev-2", "2024-01-20", "procedure", "resection"),
			row("ev-3", "2024-02-15", "medication", "chemotherapy"),
			row("ev-4", "2024-06-01", "imaging", "mri"),
		}
		out := make([]*model.RawRow, 0, len(all))
		for _, i := range order {
			out = append(out, all[i])
		}
		return out
	}

	first, err := builder.Build(ctx, "patient-1", make3([]int{0, 1, 2, 3}))
	gt.NoError(t, err).Required()
	second, err := builder.Build(ctx, "patient-1", make3([]int{3, 1, 0, 2}))
	gt.NoError(t, err).Required()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("timelines differ across input orderings:\n%+v\n%+v", first, second)
	}
}

func TestBuildDropsUnparseableDates(t *testing.T) {
	builder := timeline.New()
	ctx := context.Background()

	rows := []*model.RawRow{
		row("ev-1", "2024-01-05", "diagnosis", ""),
		row("ev-2", "not-a-date", "imaging", ""),
		row("ev-3", "", "visit", ""),
	}

	tl, err := builder.Build(ctx, "patient-1", rows)
	gt.NoError(t, err).Required()
	gt.Array(t, tl.Events).Length(1)
	gt.Value(t, tl.DroppedRows).Equal(2)
}

func TestBuildKeepsUnknownTypes(t *testing.T) {
	builder := timeline.New()
	ctx := context.Background()

	rows := []*model.RawRow{
		row("ev-1", "2024-01-05", "genomic_panel", ""),
	}

	tl, err := builder.Build(ctx, "patient-1", rows)
	gt.NoError(t, err).Required()
	gt.Array(t, tl.Events).Length(1)
	gt.Value(t, tl.Events[0].Category).Equal("Other genomic_panel")
}

func TestBuildDuplicateEventID(t *testing.T) {
	builder := timeline.New()
	ctx := context.Background()

	rows := []*model.RawRow{
		row("ev-1", "2024-01-05", "diagnosis", ""),
		row("ev-1", "2024-01-06", "imaging", ""),
	}

	_, err := builder.Build(ctx, "patient-1", rows)
	gt.Value(t, err).NotNil()
	gt.Value(t, errors.Is(err, timeline.ErrDuplicateEventID)).Equal(true)
}

func TestMilestones(t *testing.T) {
	builder := timeline.New()
	ctx := context.Background()

	rows := []*model.RawRow{
		row("ev-1", "2024-01-05", "diagnosis", "primary_diagnosis"),
		row("ev-2", "2024-01-20", "procedure", "resection"),
		row("ev-3", "2024-02-15", "medication", "chemotherapy"),
		row("ev-4", "2024-05-10", "medication", "chemotherapy"),
		row("ev-5", "2024-03-01", "radiation", "radiation_course"),
		row("ev-6", "2024-08-20", "imaging", "progression"),
	}

	tl, err := builder.Build(ctx, "patient-1", rows)
	gt.NoError(t, err).Required()

	m := tl.Milestones
	gt.Value(t, m.FirstDiagnosis).Equal(types.Date{Year: 2024, Month: 1, Day: 5})
	gt.Value(t, m.FirstSurgery).Equal(types.Date{Year: 2024, Month: 1, Day: 20})
	gt.Value(t, m.FirstTreatment).Equal(types.Date{Year: 2024, Month: 2, Day: 15})
	gt.Value(t, m.FirstRadiation).Equal(types.Date{Year: 2024, Month: 3, Day: 1})
	gt.Value(t, m.TreatmentEnd).Equal(types.Date{Year: 2024, Month: 5, Day: 10})
	gt.Value(t, m.FirstProgression).Equal(types.Date{Year: 2024, Month: 8, Day: 20})
}

func TestPhaseAssignment(t *testing.T) {
	builder := timeline.New()
	ctx := context.Background()

	rows := []*model.RawRow{
		row("ev-0", "2023-12-20", "visit", "consult"),
		row("ev-1", "2024-01-05", "diagnosis", "primary_diagnosis"),
		row("ev-2", "2024-01-10", "imaging", "mri"),
		row("ev-3", "2024-01-20", "procedure", "resection"),
		row("ev-4", "2024-02-01", "assessment", "pathology"),
		row("ev-5", "2024-02-15", "medication", "chemotherapy"),
		row("ev-5b", "2024-04-01", "medication", "chemotherapy"),
		row("ev-6", "2024-03-10", "lab_test", "cbc"),
		row("ev-7", "2024-08-20", "imaging", "surveillance_mri"),
		row("ev-8", "2024-11-01", "imaging", "progression"),
		row("ev-9", "2024-12-01", "visit", "followup"),
	}

	tl, err := builder.Build(ctx, "patient-1", rows)
	gt.NoError(t, err).Required()

	phases := map[types.EventID]types.DiseasePhase{}
	for _, ev := range tl.Events {
		phases[ev.ID] = ev.Phase
	}

	gt.Value(t, phases["ev-0"]).Equal(types.PhasePreDiagnosis)
	gt.Value(t, phases["ev-1"]).Equal(types.PhaseDiagnostic)
	gt.Value(t, phases["ev-2"]).Equal(types.PhaseDiagnostic)
	// inclusive lower bound: surgery-day event is post-surgical
	gt.Value(t, phases["ev-3"]).Equal(types.PhasePostSurgical)
	gt.Value(t, phases["ev-4"]).Equal(types.PhasePostSurgical)
	gt.Value(t, phases["ev-5"]).Equal(types.PhaseOnTreatment)
	gt.Value(t, phases["ev-6"]).Equal(types.PhaseOnTreatment)
	gt.Value(t, phases["ev-7"]).Equal(types.PhaseSurveillance)
	gt.Value(t, phases["ev-8"]).Equal(types.PhasePostProgression)
	gt.Value(t, phases["ev-9"]).Equal(types.PhasePostProgression)
}

func TestPhaseObservationWhenNeverTreated(t *testing.T) {
	builder := timeline.New()
	ctx := context.Background()

	rows := []*model.RawRow{
		row("ev-1", "2024-01-05", "diagnosis", "primary_diagnosis"),
		row("ev-2", "2024-01-20", "procedure", "resection"),
		row("ev-3", "2024-09-01", "visit", "followup"),
	}

	tl, err := builder.Build(ctx, "patient-1", rows)
	gt.NoError(t, err).Required()

	for _, ev := range tl.Events {
		if ev.ID == "ev-3" {
			gt.Value(t, ev.Phase).Equal(types.PhaseObservation)
		}
	}
}

func TestAgeInDays(t *testing.T) {
	builder := timeline.New()
	ctx := context.Background()

	rows := []*model.RawRow{
		row("ev-1", "2024-01-05", "diagnosis", ""),
		row("ev-2", "2024-01-25", "imaging", ""),
	}

	tl, err := builder.Build(ctx, "patient-1", rows)
	gt.NoError(t, err).Required()

	offset, ok := tl.AgeInDays(tl.Events[1].Date)
	gt.Value(t, ok).Equal(true)
	gt.Value(t, offset).Equal(20)
}

func TestBuildManyRowsStaysOrdered(t *testing.T) {
	builder := timeline.New()
	ctx := context.Background()

	var rows []*model.RawRow
	for i := 0; i < 50; i++ {
		day := 1 + (i*7)%28
		rows = append(rows, row(
			fmt.Sprintf("ev-%03d", i),
			fmt.Sprintf("2024-%02d-%02d", 1+i%12, day),
			"visit", "followup"))
	}

	tl, err := builder.Build(ctx, "patient-1", rows)
	gt.NoError(t, err).Required()

	for i := 1; i < len(tl.Events); i++ {
		prev, cur := tl.Events[i-1], tl.Events[i]
		if cur.Date.Before(prev.Date) {
			t.Fatalf("events out of order at %d: %v before %v", i, cur.Date, prev.Date)
		}
	}
}
