package types

// RunPhase records how far a patient's pipeline run progressed. Written to
// the checkpoint record as each phase completes so partial failures are never
// silent.
type RunPhase string

const (
	RunPhaseBuildingTimeline RunPhase = "building_timeline"
	RunPhasePrioritizing     RunPhase = "prioritizing"
	RunPhaseExtracting       RunPhase = "extracting"
	RunPhaseAnalyzing        RunPhase = "analyzing"
	RunPhaseCompleted        RunPhase = "completed"
	RunPhaseFailed           RunPhase = "failed"
)

// IsTerminal reports whether the run reached a final state
func (x RunPhase) IsTerminal() bool {
	return x == RunPhaseCompleted || x == RunPhaseFailed
}

// String returns the string representation of the run phase
func (x RunPhase) String() string {
	return string(x)
}
