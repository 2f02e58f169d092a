package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for the use case layer
var (
	ErrNoPatients     = goerr.New("no patient IDs to process")
	ErrCachedFailure  = goerr.New("document has a cached extraction failure")
	ErrReportNotFound = goerr.New("no report exists for patient")
)
