package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/service/extract"
	"github.com/clinmon-lab/asclepius/pkg/utils/errutil"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ProcessPatient runs the full pipeline for one patient: timeline
// construction, document prioritization, cached extraction, inconsistency
// detection, adjudication, and report persistence. Document-level failures
// are recorded in the report and never abort the run; logic-invariant
// violations do.
func (uc *UseCases) ProcessPatient(ctx context.Context, patientID types.PatientID) (*model.PatientReport, error) {
	logger := logging.From(ctx)
	runID := types.NewRunID()

	cp := &model.RunCheckpoint{
		RunID:     runID,
		PatientID: patientID,
	}

	fail := func(err error) (*model.PatientReport, error) {
		cp.Phase = types.RunPhaseFailed
		cp.Error = err.Error()
		uc.putCheckpoint(ctx, cp)
		return nil, err
	}

	cp.Phase = types.RunPhaseBuildingTimeline
	uc.putCheckpoint(ctx, cp)

	rows, err := uc.rows.QueryEventRows(ctx, patientID)
	if err != nil {
		return fail(goerr.Wrap(err, "failed to load event rows", goerr.V("patientID", patientID)))
	}
	tl, err := uc.builder.Build(ctx, patientID, rows)
	if err != nil {
		return fail(goerr.Wrap(err, "failed to build timeline", goerr.V("patientID", patientID)))
	}
	cp.EventCount = len(tl.Events)

	cp.Phase = types.RunPhasePrioritizing
	uc.putCheckpoint(ctx, cp)

	pool, err := uc.rows.QueryCandidateDocuments(ctx, patientID)
	if err != nil {
		return fail(goerr.Wrap(err, "failed to load candidate documents", goerr.V("patientID", patientID)))
	}
	selected := uc.prioritizer.Prioritize(ctx, tl, pool)
	cp.SelectedCount = len(selected)

	cp.Phase = types.RunPhaseExtracting
	uc.putCheckpoint(ctx, cp)

	facts, observations, failed := uc.extractSelected(ctx, tl, selected)
	cp.ExtractedCount = len(selected) - len(failed)
	cp.FailedCount = len(failed)

	cp.Phase = types.RunPhaseAnalyzing
	uc.putCheckpoint(ctx, cp)

	sort.Slice(observations, func(i, j int) bool {
		if observations[i].Date != observations[j].Date {
			return observations[i].Date.Before(observations[j].Date)
		}
		return observations[i].DocumentID < observations[j].DocumentID
	})
	inconsistencies := uc.detector.Detect(ctx, tl, observations)

	adjudications, err := uc.adjudicateFacts(ctx, facts)
	if err != nil {
		return fail(goerr.Wrap(err, "adjudication failed", goerr.V("patientID", patientID)))
	}

	report := &model.PatientReport{
		RunID:           runID,
		PatientID:       patientID,
		Timeline:        tl,
		Selected:        selected,
		Inconsistencies: inconsistencies,
		Adjudications:   adjudications,
		FailedDocuments: failed,
		CreatedAt:       time.Now().UTC(),
	}
	if err := uc.repo.Report().PutReport(ctx, report); err != nil {
		return fail(goerr.Wrap(err, "failed to store report", goerr.V("patientID", patientID)))
	}

	cp.Phase = types.RunPhaseCompleted
	uc.putCheckpoint(ctx, cp)

	logger.Info("patient run completed",
		"patientID", patientID,
		"runID", runID,
		"events", len(tl.Events),
		"selected", len(selected),
		"inconsistencies", len(inconsistencies),
		"adjudications", len(adjudications),
		"failedDocuments", len(failed),
	)

	return report, nil
}

// GetReport returns the latest stored report for the patient
func (uc *UseCases) GetReport(ctx context.Context, patientID types.PatientID) (*model.PatientReport, error) {
	report, err := uc.repo.Report().GetReport(ctx, patientID)
	if err != nil {
		return nil, goerr.Wrap(ErrReportNotFound, "report lookup failed",
			goerr.V("patientID", patientID), goerr.V("cause", err.Error()))
	}
	return report, nil
}

// GetCheckpoint returns the latest run checkpoint for the patient
func (uc *UseCases) GetCheckpoint(ctx context.Context, patientID types.PatientID) (*model.RunCheckpoint, error) {
	cp, err := uc.repo.Report().GetCheckpoint(ctx, patientID)
	if err != nil {
		return nil, goerr.Wrap(ErrReportNotFound, "checkpoint lookup failed",
			goerr.V("patientID", patientID), goerr.V("cause", err.Error()))
	}
	return cp, nil
}

// extractSelected runs cached extraction over the prioritized documents.
// Byte-identical duplicates are extracted once; every failure becomes a
// FailedDocument entry.
func (uc *UseCases) extractSelected(ctx context.Context, tl *model.Timeline, selected []*model.PrioritizedDocument) ([]*model.ExtractedFact, []*model.StatusObservation, []model.FailedDocument) {
	logger := logging.From(ctx)

	var (
		facts        []*model.ExtractedFact
		observations []*model.StatusObservation
		failed       []model.FailedDocument
	)
	extracted := make(map[types.DocumentID]struct{}, len(selected))

	for _, sel := range selected {
		doc := sel.Document

		cached, err := uc.documentText(ctx, doc)
		if err != nil {
			failed = append(failed, model.FailedDocument{
				DocumentID: doc.DocumentID,
				Reason:     sel.Reason,
				Error:      err.Error(),
			})
			continue
		}

		if dup, dupID := uc.duplicateContent(ctx, cached, extracted); dup {
			logger.Info("skipping byte-identical document",
				"documentID", doc.DocumentID,
				"duplicateOf", dupID,
			)
			continue
		}

		result, err := uc.extractor.Extract(ctx, extract.Input{
			PatientID:    tl.PatientID,
			DocumentID:   doc.DocumentID,
			DocumentDate: doc.Date,
			DocumentType: doc.DocumentType,
			Text:         cached.Text,
			Timeline:     tl,
			Reason:       sel.Reason,
		})
		if err != nil {
			failed = append(failed, model.FailedDocument{
				DocumentID: doc.DocumentID,
				Reason:     sel.Reason,
				Error:      err.Error(),
			})
			continue
		}

		extracted[doc.DocumentID] = struct{}{}
		facts = append(facts, result.Facts...)
		if result.Status != nil {
			observations = append(observations, result.Status)
		}
	}

	return facts, observations, failed
}

// documentText resolves a candidate to its cached text, fetching and caching
// on miss. Fetch failures are cached as failure records so a rerun never
// retries a dead locator under the same provenance.
func (uc *UseCases) documentText(ctx context.Context, doc *model.CandidateDocument) (*model.CachedDocument, error) {
	unlock := uc.lockDocument(doc.DocumentID)
	defer unlock()

	cache := uc.repo.DocumentCache()
	current := &model.CachedDocument{Method: uc.method, MethodVersion: uc.methodVersion}

	if cached, err := cache.Get(ctx, doc.DocumentID); err == nil {
		if cached.SameProvenance(current) {
			if !cached.Success {
				return nil, goerr.Wrap(ErrCachedFailure, cached.Error,
					goerr.V("documentID", doc.DocumentID))
			}
			return cached, nil
		}
		// provenance changed: fall through and re-fetch
	}

	data, contentType, err := uc.blobs.Fetch(ctx, doc.Locator)
	now := time.Now().UTC()
	if err != nil {
		record := &model.CachedDocument{
			DocumentID:    doc.DocumentID,
			PatientID:     doc.PatientID,
			Method:        uc.method,
			MethodVersion: uc.methodVersion,
			Locator:       doc.Locator,
			DocumentDate:  doc.Date,
			DocumentType:  doc.DocumentType,
			Category:      doc.Category,
			Success:       false,
			Error:         err.Error(),
			CreatedAt:     now,
		}
		if putErr := cache.Put(ctx, record); putErr != nil {
			_ = errutil.Handle(ctx, putErr, "failed to cache fetch failure")
		}
		return nil, goerr.Wrap(err, "failed to fetch document",
			goerr.V("documentID", doc.DocumentID),
			goerr.V("locator", doc.Locator))
	}

	text := string(data)
	cached := &model.CachedDocument{
		DocumentID:    doc.DocumentID,
		PatientID:     doc.PatientID,
		Text:          text,
		ContentHash:   model.ContentHashOf(text),
		Method:        uc.method,
		MethodVersion: uc.methodVersion,
		Locator:       doc.Locator,
		DocumentDate:  doc.Date,
		DocumentType:  doc.DocumentType,
		Category:      doc.Category,
		Success:       true,
		CreatedAt:     now,
	}

	logging.From(ctx).Debug("cached document text",
		"documentID", doc.DocumentID,
		"contentType", contentType,
		"bytes", len(data),
	)

	if err := cache.Put(ctx, cached); err != nil {
		return nil, goerr.Wrap(err, "failed to cache document",
			goerr.V("documentID", doc.DocumentID))
	}

	return cached, nil
}

// duplicateContent reports whether another document with identical text was
// already extracted in this run
func (uc *UseCases) duplicateContent(ctx context.Context, cached *model.CachedDocument, extracted map[types.DocumentID]struct{}) (bool, types.DocumentID) {
	if cached.ContentHash == "" {
		return false, ""
	}

	dupes, err := uc.repo.DocumentCache().FindByContentHash(ctx, cached.PatientID, cached.ContentHash)
	if err != nil {
		_ = errutil.Handle(ctx, err, "content hash lookup failed")
		return false, ""
	}

	for _, d := range dupes {
		if d.DocumentID == cached.DocumentID {
			continue
		}
		if _, done := extracted[d.DocumentID]; done {
			return true, d.DocumentID
		}
	}
	return false, ""
}

// adjudicateFacts groups extracted facts by subject and name and resolves
// each group. Groups keep first-appearance order so rebuilt reports are
// deterministic.
func (uc *UseCases) adjudicateFacts(ctx context.Context, facts []*model.ExtractedFact) ([]*model.Adjudication, error) {
	type key struct {
		subject string
		name    string
	}

	groups := make(map[key][]*model.ExtractedFact)
	var order []key
	for _, f := range facts {
		k := key{subject: f.Subject, name: f.Name}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	adjudications := make([]*model.Adjudication, 0, len(order))
	for _, k := range order {
		adj, err := uc.adjudicator.Adjudicate(ctx, groups[k])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to adjudicate fact group",
				goerr.V("subject", k.subject), goerr.V("name", k.name))
		}
		adjudications = append(adjudications, adj)
	}

	return adjudications, nil
}

// putCheckpoint writes the run status record. Checkpoint persistence is
// best-effort: a write failure is logged, never fatal.
func (uc *UseCases) putCheckpoint(ctx context.Context, cp *model.RunCheckpoint) {
	cp.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Report().PutCheckpoint(ctx, cp); err != nil {
		_ = errutil.Handle(ctx, err, "failed to write run checkpoint")
	}
}
