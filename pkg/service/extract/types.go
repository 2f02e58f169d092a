package extract

import (
	"context"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// Service defines the interface for fact extraction from document text
type Service interface {
	// Extract reads one document in the context of the patient's timeline and
	// returns structured facts plus a disease-status observation
	Extract(ctx context.Context, input Input) (*Result, error)
}

// Input represents one extraction request
type Input struct {
	PatientID    types.PatientID
	DocumentID   types.DocumentID
	DocumentDate types.Date
	DocumentType string
	Text         string `masq:"phi"`
	Timeline     *model.Timeline
	Reason       types.PriorityReason
}

// Result is the structured output of one extraction
type Result struct {
	Facts  []*model.ExtractedFact
	Status *model.StatusObservation
	// Rounds counts how many model calls were needed, including
	// clarification retries
	Rounds int
}

// llmResponse is the structured output from the LLM
type llmResponse struct {
	Facts         []llmFact  `json:"facts"`
	DiseaseStatus *llmStatus `json:"disease_status"`
}

type llmFact struct {
	Subject    string  `json:"subject"`
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
	SourceType string  `json:"source_type"`
}

type llmStatus struct {
	Status string `json:"status"`
}
