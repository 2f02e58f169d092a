package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/clinmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/repository/firestore"
	"github.com/clinmon-lab/asclepius/pkg/repository/memory"
	"github.com/m-mizutani/gt"
)

func runReportRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("PutReport then GetReport round-trips the artifact", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		patientID := types.PatientID(fmt.Sprintf("patient-%d", time.Now().UnixNano()))
		report := &model.PatientReport{
			RunID:     types.NewRunID(),
			PatientID: patientID,
			Timeline: &model.Timeline{
				PatientID: patientID,
				Events: []*model.Event{
					{
						ID:        "ev-1",
						PatientID: patientID,
						Date:      types.Date{Year: 2024, Month: time.March, Day: 5},
						Type:      types.EventTypeDiagnosis,
						Category:  "primary_diagnosis",
						Phase:     types.PhaseDiagnostic,
					},
				},
				Milestones: model.Milestones{
					FirstDiagnosis: types.Date{Year: 2024, Month: time.March, Day: 5},
				},
			},
			Inconsistencies: []*model.Inconsistency{
				{
					Kind:     types.KindRapidImprovement,
					Severity: types.SeverityHigh,
					DayGap:   10,
					Escalate: true,
				},
			},
			Adjudications: []*model.Adjudication{
				{
					Subject:    "surgery-1",
					Name:       "extent_of_resection",
					FinalValue: "gross_total",
					Agreement:  types.AgreementFull,
					Confidence: 0.95,
				},
			},
			FailedDocuments: []model.FailedDocument{
				{DocumentID: "doc-9", Reason: types.ReasonMostRecent, Error: "fetch failed"},
			},
		}

		gt.NoError(t, repo.Report().PutReport(ctx, report)).Required()

		got, err := repo.Report().GetReport(ctx, patientID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.RunID).Equal(report.RunID)
		gt.Array(t, got.Timeline.Events).Length(1)
		gt.Value(t, got.Timeline.Events[0].Phase).Equal(types.PhaseDiagnostic)
		gt.Array(t, got.Inconsistencies).Length(1)
		gt.Array(t, got.Adjudications).Length(1)
		gt.Value(t, got.Partial()).Equal(true)
	})

	t.Run("GetReport for unknown patient returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		patientID := types.PatientID(fmt.Sprintf("nobody-%d", time.Now().UnixNano()))
		_, err := repo.Report().GetReport(ctx, patientID)
		gt.Value(t, err).NotNil()
		gt.Value(t, errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)).Equal(true)
	})

	t.Run("Checkpoint is upserted on phase transitions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		patientID := types.PatientID(fmt.Sprintf("patient-%d", time.Now().UnixNano()))
		runID := types.NewRunID()

		gt.NoError(t, repo.Report().PutCheckpoint(ctx, &model.RunCheckpoint{
			RunID:     runID,
			PatientID: patientID,
			Phase:     types.RunPhaseBuildingTimeline,
		})).Required()

		gt.NoError(t, repo.Report().PutCheckpoint(ctx, &model.RunCheckpoint{
			RunID:          runID,
			PatientID:      patientID,
			Phase:          types.RunPhaseFailed,
			EventCount:     12,
			SelectedCount:  3,
			ExtractedCount: 2,
			FailedCount:    1,
			Error:          "duplicate event id",
		})).Required()

		got, err := repo.Report().GetCheckpoint(ctx, patientID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Phase).Equal(types.RunPhaseFailed)
		gt.Value(t, got.EventCount).Equal(12)
		gt.Value(t, got.Error).Equal("duplicate event id")
		gt.Value(t, got.UpdatedAt.IsZero()).Equal(false)
	})
}

func TestMemoryReportRepository(t *testing.T) {
	runReportRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreReportRepository(t *testing.T) {
	runReportRepositoryTest(t, newFirestoreRepository)
}
