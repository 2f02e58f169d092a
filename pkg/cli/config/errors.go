package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound       = goerr.New("configuration file not found")
	ErrInvalidConfig        = goerr.New("invalid configuration")
	ErrInvalidWindow        = goerr.New("window must be a positive day count")
	ErrInvalidEquivalence   = goerr.New("invalid equivalence entry")
	ErrDuplicateEquivalence = goerr.New("duplicate equivalence entry")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	FactNameKey   = "fact_name"
)
