package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	httpctrl "github.com/clinmon-lab/asclepius/pkg/controller/http"
	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/repository/memory"
	"github.com/clinmon-lab/asclepius/pkg/service/extract"
	"github.com/clinmon-lab/asclepius/pkg/usecase"
	"github.com/m-mizutani/gt"
)

type stubRowSource struct{}

func (stubRowSource) QueryEventRows(ctx context.Context, patientID types.PatientID) ([]*model.RawRow, error) {
	return nil, nil
}

func (stubRowSource) QueryCandidateDocuments(ctx context.Context, patientID types.PatientID) ([]*model.CandidateDocument, error) {
	return nil, nil
}

type stubBlobFetcher struct{}

func (stubBlobFetcher) Fetch(ctx context.Context, locator string) ([]byte, string, error) {
	return nil, "", nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, input extract.Input) (*extract.Result, error) {
	return &extract.Result{}, nil
}

func newTestServer(t *testing.T, repo *memory.Memory) *httpctrl.Server {
	t.Helper()
	uc := usecase.New(repo, stubRowSource{}, stubBlobFetcher{}, stubExtractor{})
	return httpctrl.New(uc)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	gt.Value(t, rec.Code).Equal(200)
	gt.Value(t, rec.Header().Get("Content-Type")).Equal("application/json")
}

func TestGetReport(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	report := &model.PatientReport{
		RunID:     types.NewRunID(),
		PatientID: "patient-1",
		Timeline:  &model.Timeline{PatientID: "patient-1"},
		CreatedAt: time.Now().UTC(),
	}
	gt.NoError(t, repo.Report().PutReport(ctx, report)).Required()

	srv := newTestServer(t, repo)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/patients/patient-1/report", nil))

	gt.Value(t, rec.Code).Equal(200)

	var got model.PatientReport
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got)).Required()
	gt.Value(t, got.PatientID).Equal(types.PatientID("patient-1"))
	gt.Value(t, got.RunID).Equal(report.RunID)
}

func TestGetReportNotFound(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/patients/unknown/report", nil))

	gt.Value(t, rec.Code).Equal(404)
}

func TestGetCheckpoint(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	cp := &model.RunCheckpoint{
		RunID:      types.NewRunID(),
		PatientID:  "patient-1",
		Phase:      types.RunPhaseCompleted,
		EventCount: 12,
		UpdatedAt:  time.Now().UTC(),
	}
	gt.NoError(t, repo.Report().PutCheckpoint(ctx, cp)).Required()

	srv := newTestServer(t, repo)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/patients/patient-1/checkpoint", nil))

	gt.Value(t, rec.Code).Equal(200)

	var got model.RunCheckpoint
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got)).Required()
	gt.Value(t, got.Phase).Equal(types.RunPhaseCompleted)
	gt.Value(t, got.EventCount).Equal(12)
}

func TestGetCheckpointNotFound(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/patients/unknown/checkpoint", nil))

	gt.Value(t, rec.Code).Equal(404)
}
