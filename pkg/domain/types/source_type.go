package types

// FactSourceType classifies the document kind an ExtractedFact came from.
// Adjudication ranks sources by this type.
type FactSourceType string

const (
	SourcePrimaryNote     FactSourceType = "primary_procedure_note"
	SourcePostProcedureOb FactSourceType = "post_procedure_observation"
	SourceStructuredOrder FactSourceType = "structured_order"
)

// AllFactSourceTypes returns source types in priority order (highest first)
func AllFactSourceTypes() []FactSourceType {
	return []FactSourceType{
		SourcePrimaryNote,
		SourcePostProcedureOb,
		SourceStructuredOrder,
	}
}

// Rank returns the priority rank of the source type (lower is more
// authoritative). Unknown source types rank below all known ones.
func (x FactSourceType) Rank() int {
	for i, s := range AllFactSourceTypes() {
		if s == x {
			return i
		}
	}
	return len(AllFactSourceTypes())
}

// IsValid checks if the fact source type is valid
func (x FactSourceType) IsValid() bool {
	return x.Rank() < len(AllFactSourceTypes())
}

// String returns the string representation of the fact source type
func (x FactSourceType) String() string {
	return string(x)
}
