package config

import (
	"os"
	"time"

	"github.com/clinmon-lab/asclepius/pkg/service/adjudicate"
	"github.com/clinmon-lab/asclepius/pkg/service/consistency"
	"github.com/clinmon-lab/asclepius/pkg/service/extract"
	"github.com/clinmon-lab/asclepius/pkg/service/prioritizer"
	"github.com/clinmon-lab/asclepius/pkg/service/timeline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// AppConfig is the pipeline tuning configuration loaded from a TOML file.
// Every value has a shipped default; an absent file means defaults
// throughout.
type AppConfig struct {
	Timeline     TimelineConfig     `toml:"timeline"`
	Prioritizer  PrioritizerConfig  `toml:"prioritizer"`
	Consistency  ConsistencyConfig  `toml:"consistency"`
	Extraction   ExtractionConfig   `toml:"extraction"`
	Adjudication AdjudicationConfig `toml:"adjudication"`

	path string
}

// TimelineConfig tunes phase-assignment fallback windows
type TimelineConfig struct {
	DiagnosticWindowDays   int `toml:"diagnostic_window_days"`
	PostSurgicalWindowDays int `toml:"post_surgical_window_days"`
	SurveillanceFallback   int `toml:"surveillance_fallback_days"`
}

// PrioritizerConfig tunes document selection windows
type PrioritizerConfig struct {
	WindowDays int `toml:"window_days"`
}

// ConsistencyConfig tunes inconsistency detection thresholds
type ConsistencyConfig struct {
	RapidImprovementDays int `toml:"rapid_improvement_days"`
	ProgressionDays      int `toml:"progression_days"`
}

// ExtractionConfig tunes the LLM extraction loop and cache provenance
type ExtractionConfig struct {
	MaxRounds     int    `toml:"max_rounds"`
	BackoffMillis int    `toml:"backoff_ms"`
	Method        string `toml:"method"`
	MethodVersion string `toml:"method_version"`
}

// AdjudicationConfig carries the fact-specific equivalence table. Value pairs
// listed here count as partial agreement; everything else distinct is a
// discrepancy.
type AdjudicationConfig struct {
	Equivalence []EquivalenceEntry `toml:"equivalence"`
}

// EquivalenceEntry marks two values of one fact as adjacent
type EquivalenceEntry struct {
	Fact string `toml:"fact"`
	A    string `toml:"a"`
	B    string `toml:"b"`
}

// Validate checks if the EquivalenceEntry is valid
func (e *EquivalenceEntry) Validate() error {
	if e.Fact == "" || e.A == "" || e.B == "" {
		return goerr.Wrap(ErrInvalidEquivalence, "fact, a and b are all required",
			goerr.V(FactNameKey, e.Fact))
	}
	if e.A == e.B {
		return goerr.Wrap(ErrInvalidEquivalence, "a and b must differ",
			goerr.V(FactNameKey, e.Fact))
	}
	return nil
}

// defaultEquivalence is the shipped extent-of-resection ladder: adjacent
// rungs agree partially, anything further apart is discrepant
var defaultEquivalence = []EquivalenceEntry{
	{Fact: "extent_of_resection", A: "gross_total", B: "near_total"},
	{Fact: "extent_of_resection", A: "near_total", B: "subtotal"},
}

// Flags returns CLI flags for app configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to pipeline configuration TOML file",
			Sources:     cli.EnvVars("ASCLEPIUS_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Load reads the configured TOML file (when set), applies defaults, and
// validates the result
func (a *AppConfig) Load() error {
	if a.path != "" {
		// #nosec G304 - path is expected to be provided by CLI argument
		data, err := os.ReadFile(a.path)
		if err != nil {
			return goerr.Wrap(ErrConfigNotFound, err.Error(), goerr.V(ConfigPathKey, a.path))
		}
		if err := toml.Unmarshal(data, a); err != nil {
			return goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, a.path))
		}
	}

	a.applyDefaults()

	return a.Validate()
}

func (a *AppConfig) applyDefaults() {
	if a.Timeline.DiagnosticWindowDays == 0 {
		a.Timeline.DiagnosticWindowDays = 90
	}
	if a.Timeline.PostSurgicalWindowDays == 0 {
		a.Timeline.PostSurgicalWindowDays = 180
	}
	if a.Timeline.SurveillanceFallback == 0 {
		a.Timeline.SurveillanceFallback = 365
	}
	if a.Prioritizer.WindowDays == 0 {
		a.Prioritizer.WindowDays = 7
	}
	if a.Consistency.RapidImprovementDays == 0 {
		a.Consistency.RapidImprovementDays = 14
	}
	if a.Consistency.ProgressionDays == 0 {
		a.Consistency.ProgressionDays = 90
	}
	if a.Extraction.MaxRounds == 0 {
		a.Extraction.MaxRounds = 3
	}
	if a.Extraction.BackoffMillis == 0 {
		a.Extraction.BackoffMillis = 500
	}
	if a.Extraction.Method == "" {
		a.Extraction.Method = "plaintext"
	}
	if a.Extraction.MethodVersion == "" {
		a.Extraction.MethodVersion = "v1"
	}
	if len(a.Adjudication.Equivalence) == 0 {
		a.Adjudication.Equivalence = defaultEquivalence
	}
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	for _, days := range []int{
		a.Timeline.DiagnosticWindowDays,
		a.Timeline.PostSurgicalWindowDays,
		a.Timeline.SurveillanceFallback,
		a.Prioritizer.WindowDays,
		a.Consistency.RapidImprovementDays,
		a.Consistency.ProgressionDays,
	} {
		if days < 0 {
			return goerr.Wrap(ErrInvalidWindow, "negative day count", goerr.V("days", days))
		}
	}

	if a.Extraction.MaxRounds < 1 {
		return goerr.Wrap(ErrInvalidConfig, "extraction max_rounds must be at least 1")
	}
	if a.Extraction.BackoffMillis < 0 {
		return goerr.Wrap(ErrInvalidConfig, "extraction backoff_ms must not be negative")
	}

	seen := make(map[EquivalenceEntry]bool)
	for _, e := range a.Adjudication.Equivalence {
		if err := e.Validate(); err != nil {
			return err
		}
		key := e
		if key.B < key.A {
			key.A, key.B = key.B, key.A
		}
		if seen[key] {
			return goerr.Wrap(ErrDuplicateEquivalence, "pair listed twice",
				goerr.V(FactNameKey, e.Fact))
		}
		seen[key] = true
	}

	return nil
}

// TimelineOptions converts the config into timeline builder options
func (a *AppConfig) TimelineOptions() []timeline.Option {
	return []timeline.Option{
		timeline.WithDiagnosticWindow(a.Timeline.DiagnosticWindowDays),
		timeline.WithPostSurgicalWindow(a.Timeline.PostSurgicalWindowDays),
		timeline.WithSurveillanceFallback(a.Timeline.SurveillanceFallback),
	}
}

// PrioritizerOptions converts the config into prioritizer options
func (a *AppConfig) PrioritizerOptions() []prioritizer.Option {
	return []prioritizer.Option{
		prioritizer.WithWindow(a.Prioritizer.WindowDays),
	}
}

// DetectorOptions converts the config into inconsistency detector options
func (a *AppConfig) DetectorOptions() []consistency.Option {
	return []consistency.Option{
		consistency.WithRapidImprovementThreshold(a.Consistency.RapidImprovementDays),
		consistency.WithProgressionThreshold(a.Consistency.ProgressionDays),
	}
}

// AdjudicatorOptions converts the equivalence table into adjudicator options
func (a *AppConfig) AdjudicatorOptions() []adjudicate.Option {
	opts := make([]adjudicate.Option, 0, len(a.Adjudication.Equivalence))
	for _, e := range a.Adjudication.Equivalence {
		opts = append(opts, adjudicate.WithEquivalence(e.Fact, e.A, e.B))
	}
	return opts
}

// ExtractOptions converts the config into extraction service options
func (a *AppConfig) ExtractOptions() []extract.Option {
	return []extract.Option{
		extract.WithMaxRounds(a.Extraction.MaxRounds),
		extract.WithBackoff(time.Duration(a.Extraction.BackoffMillis) * time.Millisecond),
	}
}
