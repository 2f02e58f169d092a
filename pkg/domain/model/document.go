package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// CachedDocument is the content-addressed record of one extraction attempt
// for a document. At most one CachedDocument exists per document id; a
// re-extraction with a different method/version replaces it, preserving the
// new provenance.
type CachedDocument struct {
	DocumentID    types.DocumentID
	PatientID     types.PatientID
	Text          string `masq:"phi"`
	ContentHash   string
	Method        string
	MethodVersion string
	Locator       string
	DocumentDate  types.Date
	DocumentType  string
	Category      string
	Success       bool
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ContentHashOf returns the hex SHA-256 of the extracted text, used to detect
// that two document ids resolved to byte-identical content
func ContentHashOf(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SameProvenance reports whether other was produced by the same extraction
// method and version. Put only overwrites when this is false.
func (x *CachedDocument) SameProvenance(other *CachedDocument) bool {
	return x.Method == other.Method && x.MethodVersion == other.MethodVersion
}

// Clone returns a copy of the cached document
func (x *CachedDocument) Clone() *CachedDocument {
	copied := *x
	return &copied
}

// CandidateDocument is a document in the selection pool before
// prioritization
type CandidateDocument struct {
	DocumentID   types.DocumentID
	PatientID    types.PatientID
	Date         types.Date
	DocumentType string
	Category     string
	Locator      string
}

// PrioritizedDocument wraps a candidate selected for extraction with the
// reason and signed day-offset from its triggering event
type PrioritizedDocument struct {
	Document       *CandidateDocument
	Reason         types.PriorityReason
	TriggerEventID types.EventID
	DayOffset      int
}
