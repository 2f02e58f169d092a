package model

import (
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// ExtractedFact is one structured clinical fact pulled out of a document by
// the extraction service
type ExtractedFact struct {
	Subject      string
	Name         string
	Value        string
	Confidence   float64
	EvidenceSpan string `masq:"phi"`
	DocumentID   types.DocumentID
	SourceType   types.FactSourceType
	SourceDate   types.Date
}

// ContributingFact records one source's value inside an Adjudication so that
// no extraction is silently dropped
type ContributingFact struct {
	DocumentID types.DocumentID
	SourceType types.FactSourceType
	SourceDate types.Date
	Value      string
	Confidence float64
}

// Adjudication is the single resolved value for one subject+fact-name,
// produced from all contributing extractions
type Adjudication struct {
	Subject      string
	Name         string
	FinalValue   string
	Agreement    types.AgreementLevel
	Confidence   float64
	Escalate     bool
	Contributing []ContributingFact
}
