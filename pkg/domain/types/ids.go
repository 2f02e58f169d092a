package types

import "github.com/google/uuid"

// PatientID identifies a single patient across all record sources
type PatientID string

func (x PatientID) String() string { return string(x) }

// EventID identifies one clinical event within a patient's timeline.
// Source rows carry stable ids so that rebuilt timelines keep the same ids.
type EventID string

func (x EventID) String() string { return string(x) }

// DocumentID identifies one clinical document in the candidate pool
type DocumentID string

func (x DocumentID) String() string { return string(x) }

// RunID identifies one per-patient pipeline run
type RunID string

// NewRunID generates a new UUID v7 RunID
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

func (x RunID) String() string { return string(x) }
