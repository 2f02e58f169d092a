package adjudicate

import (
	"context"
	"sort"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNoContributingFacts indicates an adjudication was requested with zero
// extractions. This is a logic-invariant violation and aborts the patient's
// run.
var ErrNoContributingFacts = goerr.New("adjudication with no contributing facts")

// Adjudicator resolves multiple independent extractions of the same fact to
// a single authoritative value using the source-priority hierarchy. The
// equivalence classes used for partial agreement are configuration, not
// inference; see cli/config.
type Adjudicator struct {
	// adjacent maps fact name to unordered value pairs that count as
	// partial agreement rather than discrepancy
	adjacent map[string]map[pairKey]struct{}
}

type pairKey struct {
	a, b string
}

func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

type Option func(*Adjudicator)

// WithEquivalence registers a value pair for the named fact as adjacent
// (partial agreement)
func WithEquivalence(factName, a, b string) Option {
	return func(x *Adjudicator) {
		if x.adjacent[factName] == nil {
			x.adjacent[factName] = make(map[pairKey]struct{})
		}
		x.adjacent[factName][newPairKey(a, b)] = struct{}{}
	}
}

func New(opts ...Option) *Adjudicator {
	x := &Adjudicator{
		adjacent: make(map[string]map[pairKey]struct{}),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Adjudicate reduces the extractions for one subject+fact-name to a single
// Adjudication. Every contributing source and its value is retained for
// auditability; no fact is silently dropped.
func (x *Adjudicator) Adjudicate(ctx context.Context, facts []*model.ExtractedFact) (*model.Adjudication, error) {
	if len(facts) == 0 {
		return nil, goerr.Wrap(ErrNoContributingFacts, "adjudicator invariant violated")
	}

	ranked := make([]*model.ExtractedFact, len(facts))
	copy(ranked, facts)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].SourceType.Rank() != ranked[j].SourceType.Rank() {
			return ranked[i].SourceType.Rank() < ranked[j].SourceType.Rank()
		}
		if ranked[i].SourceDate != ranked[j].SourceDate {
			return ranked[i].SourceDate.Before(ranked[j].SourceDate)
		}
		return ranked[i].DocumentID < ranked[j].DocumentID
	})

	top := ranked[0]
	adj := &model.Adjudication{
		Subject:    top.Subject,
		Name:       top.Name,
		FinalValue: top.Value,
		Confidence: top.Confidence,
	}
	for _, f := range ranked {
		adj.Contributing = append(adj.Contributing, model.ContributingFact{
			DocumentID: f.DocumentID,
			SourceType: f.SourceType,
			SourceDate: f.SourceDate,
			Value:      f.Value,
			Confidence: f.Confidence,
		})
	}

	adj.Agreement = x.classify(top.Name, ranked)

	switch adj.Agreement {
	case types.AgreementFull:
		// independent agreement raises confidence
		boost := 0.05 * float64(len(ranked)-1)
		adj.Confidence = minFloat(0.99, adj.Confidence+boost)

	case types.AgreementPartial:
		// near-synonymous values neither raise nor lower confidence

	case types.AgreementDiscrepant:
		adj.Confidence = adj.Confidence * 0.5
	}

	// When the top source disagrees outright with a majority of the others,
	// surface for escalation rather than silently picking a side.
	if x.majorityOverride(top, ranked) {
		adj.Agreement = types.AgreementDiscrepant
		adj.FinalValue = ""
		adj.Escalate = true
		logging.From(ctx).Warn("adjudication escalated",
			"subject", top.Subject,
			"fact", top.Name,
			"sources", len(ranked),
		)
	}

	return adj, nil
}

// classify compares every pair of non-empty values. All equal is full
// agreement; all pairs equal or adjacent is partial; anything else is
// discrepant.
func (x *Adjudicator) classify(factName string, facts []*model.ExtractedFact) types.AgreementLevel {
	values := nonEmptyValues(facts)
	if len(values) <= 1 {
		return types.AgreementFull
	}

	level := types.AgreementFull
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			switch x.distance(factName, values[i], values[j]) {
			case 1:
				if level == types.AgreementFull {
					level = types.AgreementPartial
				}
			case 2:
				return types.AgreementDiscrepant
			}
		}
	}
	return level
}

// distance is 0 for equal values, 1 for configured-adjacent values, 2
// otherwise
func (x *Adjudicator) distance(factName, a, b string) int {
	if a == b {
		return 0
	}
	if pairs, ok := x.adjacent[factName]; ok {
		if _, ok := pairs[newPairKey(a, b)]; ok {
			return 1
		}
	}
	return 2
}

// majorityOverride reports whether the top-priority value is more than one
// severity level away from the value held by a majority of the other sources
func (x *Adjudicator) majorityOverride(top *model.ExtractedFact, ranked []*model.ExtractedFact) bool {
	others := ranked[1:]
	if len(others) < 2 {
		return false
	}

	counts := make(map[string]int)
	for _, f := range others {
		if f.Value == "" {
			continue
		}
		counts[f.Value]++
	}

	for value, n := range counts {
		if n*2 > len(others) && x.distance(top.Name, top.Value, value) >= 2 {
			return true
		}
	}
	return false
}

func nonEmptyValues(facts []*model.ExtractedFact) []string {
	var out []string
	for _, f := range facts {
		if f.Value != "" {
			out = append(out, f.Value)
		}
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
