package usecase

import (
	"context"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/utils/errutil"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// PatientResult is the outcome of one patient within a batch run
type PatientResult struct {
	PatientID types.PatientID
	Report    *model.PatientReport
	Err       error
}

// BatchResult summarizes a batch run. A patient failure never cancels the
// rest of the batch.
type BatchResult struct {
	Completed int
	Partial   int
	Failed    int
	Results   []PatientResult
}

// RunBatch processes the given patients with bounded concurrency
func (uc *UseCases) RunBatch(ctx context.Context, patientIDs []types.PatientID) (*BatchResult, error) {
	if len(patientIDs) == 0 {
		return nil, ErrNoPatients
	}

	logger := logging.From(ctx)
	logger.Info("starting batch run",
		"patients", len(patientIDs),
		"concurrency", uc.concurrency,
	)

	results := make([]PatientResult, len(patientIDs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)

	for i, patientID := range patientIDs {
		eg.Go(func() error {
			report, err := uc.ProcessPatient(ctx, patientID)
			if err != nil {
				_ = errutil.Handle(ctx, err, "patient run failed")
			}
			results[i] = PatientResult{
				PatientID: patientID,
				Report:    report,
				Err:       err,
			}
			return nil
		})
	}

	// workers never return errors; failures live in the per-patient results
	_ = eg.Wait()

	batch := &BatchResult{Results: results}
	for _, r := range results {
		switch {
		case r.Err != nil:
			batch.Failed++
		case r.Report.Partial():
			batch.Partial++
		default:
			batch.Completed++
		}
	}

	logger.Info("batch run finished",
		"completed", batch.Completed,
		"partial", batch.Partial,
		"failed", batch.Failed,
	)

	return batch, nil
}
