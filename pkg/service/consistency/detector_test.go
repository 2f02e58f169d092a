package consistency_test

import (
	"context"
	"testing"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/service/consistency"
	"github.com/m-mizutani/gt"
)

func day(n int) types.Date {
	base := types.Date{Year: 2024, Month: 1, Day: 1}
	return base.AddDays(n)
}

func obs(n int, status types.DiseaseStatus) *model.StatusObservation {
	return &model.StatusObservation{Date: day(n), Status: status}
}

func emptyTimeline() *model.Timeline {
	return &model.Timeline{PatientID: "patient-1"}
}

func timelineWithProcedure(n int) *model.Timeline {
	return &model.Timeline{
		PatientID: "patient-1",
		Events: []*model.Event{
			{ID: "surg-1", PatientID: "patient-1", Date: day(n), Type: types.EventTypeProcedure},
		},
	}
}

func TestRapidImprovement(t *testing.T) {
	d := consistency.New()
	ctx := context.Background()

	found := d.Detect(ctx, emptyTimeline(), []*model.StatusObservation{
		obs(0, types.StatusIncreased),
		obs(10, types.StatusDecreased),
	})

	gt.Array(t, found).Length(1).Required()
	gt.Value(t, found[0].Kind).Equal(types.KindRapidImprovement)
	gt.Value(t, found[0].Severity).Equal(types.SeverityHigh)
	gt.Value(t, found[0].DayGap).Equal(10)
	gt.Value(t, found[0].Escalate).Equal(true)
}

func TestRapidImprovementSuppressedByProcedure(t *testing.T) {
	d := consistency.New()
	ctx := context.Background()

	found := d.Detect(ctx, timelineWithProcedure(5), []*model.StatusObservation{
		obs(0, types.StatusIncreased),
		obs(10, types.StatusDecreased),
	})

	gt.Array(t, found).Length(0)
}

func TestRapidImprovementOutsideThreshold(t *testing.T) {
	d := consistency.New()
	ctx := context.Background()

	found := d.Detect(ctx, emptyTimeline(), []*model.StatusObservation{
		obs(0, types.StatusIncreased),
		obs(20, types.StatusDecreased),
	})

	gt.Array(t, found).Length(0)
}

func TestUnexpectedProgression(t *testing.T) {
	d := consistency.New()
	ctx := context.Background()

	found := d.Detect(ctx, emptyTimeline(), []*model.StatusObservation{
		obs(0, types.StatusNoEvidence),
		obs(30, types.StatusNewFinding),
	})

	gt.Array(t, found).Length(1).Required()
	gt.Value(t, found[0].Kind).Equal(types.KindUnexpectedProgression)
	gt.Value(t, found[0].Severity).Equal(types.SeverityMedium)
	gt.Value(t, found[0].Escalate).Equal(false)
}

func TestUnexpectedProgressionBeyondThreshold(t *testing.T) {
	d := consistency.New()
	ctx := context.Background()

	found := d.Detect(ctx, emptyTimeline(), []*model.StatusObservation{
		obs(0, types.StatusNoEvidence),
		obs(120, types.StatusIncreased),
	})

	gt.Array(t, found).Length(0)
}

func TestIllogicalOscillation(t *testing.T) {
	d := consistency.New()
	ctx := context.Background()

	found := d.Detect(ctx, emptyTimeline(), []*model.StatusObservation{
		obs(0, types.StatusNoEvidence),
		obs(100, types.StatusStable),
		obs(200, types.StatusNoEvidence),
	})

	gt.Array(t, found).Length(1).Required()
	gt.Value(t, found[0].Kind).Equal(types.KindIllogicalOscillation)
	gt.Value(t, found[0].Severity).Equal(types.SeverityHigh)
	gt.Value(t, found[0].Escalate).Equal(true)
}

func TestOscillationSuppressedByProcedure(t *testing.T) {
	d := consistency.New()
	ctx := context.Background()

	found := d.Detect(ctx, timelineWithProcedure(150), []*model.StatusObservation{
		obs(0, types.StatusNoEvidence),
		obs(100, types.StatusStable),
		obs(200, types.StatusNoEvidence),
	})

	gt.Array(t, found).Length(0)
}

func TestCustomThresholds(t *testing.T) {
	d := consistency.New(
		consistency.WithRapidImprovementThreshold(5),
		consistency.WithProgressionThreshold(10),
	)
	ctx := context.Background()

	found := d.Detect(ctx, emptyTimeline(), []*model.StatusObservation{
		obs(0, types.StatusIncreased),
		obs(4, types.StatusDecreased),
	})
	gt.Array(t, found).Length(1)

	found = d.Detect(ctx, emptyTimeline(), []*model.StatusObservation{
		obs(0, types.StatusNoEvidence),
		obs(30, types.StatusNewFinding),
	})
	gt.Array(t, found).Length(0)
}
