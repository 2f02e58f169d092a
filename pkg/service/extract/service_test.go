package extract_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/service/extract"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{`{"facts": []}`}}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	session gollem.Session
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.session != nil {
		return c.session, nil
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func testInput() extract.Input {
	return extract.Input{
		PatientID:    "patient-1",
		DocumentID:   "doc-1",
		DocumentDate: types.Date{Year: 2024, Month: 3, Day: 10},
		DocumentType: "operative_note",
		Text:         "Gross total resection was achieved.",
		Timeline:     &model.Timeline{PatientID: "patient-1"},
		Reason:       types.ReasonPostSurgery,
	}
}

const validResponse = `{
	"facts": [
		{
			"subject": "surg-1",
			"name": "extent_of_resection",
			"value": "gross_total",
			"confidence": 0.9,
			"evidence": "Gross total resection was achieved.",
			"source_type": "primary_procedure_note"
		}
	],
	"disease_status": {"status": "no_evidence_of_disease"}
}`

func TestExtractParsesFactsAndStatus(t *testing.T) {
	svc, err := extract.New(&mockLLMClient{
		session: &mockLLMSession{
			generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
				return &gollem.Response{Texts: []string{validResponse}}, nil
			},
		},
	})
	gt.NoError(t, err).Required()

	result, err := svc.Extract(context.Background(), testInput())
	gt.NoError(t, err).Required()

	gt.Array(t, result.Facts).Length(1).Required()
	gt.Value(t, result.Facts[0].Name).Equal("extent_of_resection")
	gt.Value(t, result.Facts[0].Value).Equal("gross_total")
	gt.Value(t, result.Facts[0].SourceType).Equal(types.SourcePrimaryNote)
	gt.Value(t, result.Facts[0].DocumentID).Equal(types.DocumentID("doc-1"))
	gt.Value(t, result.Facts[0].SourceDate).Equal(types.Date{Year: 2024, Month: 3, Day: 10})

	gt.Value(t, result.Status).NotNil().Required()
	gt.Value(t, result.Status.Status).Equal(types.StatusNoEvidence)
	gt.Value(t, result.Status.DocumentID).Equal(types.DocumentID("doc-1"))
	gt.Value(t, result.Rounds).Equal(1)
}

func TestExtractClarifiesMalformedJSON(t *testing.T) {
	calls := 0
	svc, err := extract.New(&mockLLMClient{
		session: &mockLLMSession{
			generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
				calls++
				if calls == 1 {
					return &gollem.Response{Texts: []string{"I found these facts: ..."}}, nil
				}
				return &gollem.Response{Texts: []string{validResponse}}, nil
			},
		},
	}, extract.WithBackoff(time.Millisecond))
	gt.NoError(t, err).Required()

	result, err := svc.Extract(context.Background(), testInput())
	gt.NoError(t, err).Required()

	gt.Value(t, calls).Equal(2)
	gt.Value(t, result.Rounds).Equal(2)
	gt.Array(t, result.Facts).Length(1)
}

func TestExtractRejectsInvalidStatus(t *testing.T) {
	svc, err := extract.New(&mockLLMClient{
		session: &mockLLMSession{
			generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
				return &gollem.Response{Texts: []string{`{"facts": [], "disease_status": {"status": "cured"}}`}}, nil
			},
		},
	}, extract.WithMaxRounds(2), extract.WithBackoff(time.Millisecond))
	gt.NoError(t, err).Required()

	_, err = svc.Extract(context.Background(), testInput())
	gt.Error(t, err)
	if !errors.Is(err, extract.ErrExtractionExhausted) {
		t.Fatalf("expected ErrExtractionExhausted, got %v", err)
	}
}

func TestExtractGivesUpAfterMaxRounds(t *testing.T) {
	calls := 0
	svc, err := extract.New(&mockLLMClient{
		session: &mockLLMSession{
			generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
				calls++
				return &gollem.Response{Texts: []string{"still not json"}}, nil
			},
		},
	}, extract.WithMaxRounds(3), extract.WithBackoff(time.Millisecond))
	gt.NoError(t, err).Required()

	_, err = svc.Extract(context.Background(), testInput())
	gt.Error(t, err)
	gt.Value(t, calls).Equal(3)
}

func TestExtractRequiresClient(t *testing.T) {
	_, err := extract.New(nil)
	gt.Error(t, err)
}
