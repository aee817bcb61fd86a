package services

import (
	"math"

	"github.com/jorge6242/graph-builder-api/domain/core/entities"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

// ResolvedPair is an edge candidate mapped onto topic identifiers,
// oriented so that SourceTopicID < TargetTopicID.
type ResolvedPair struct {
	SourceTopicID string
	TargetTopicID string
	Score         float64
}

// CanonicalIdentifierPair orders two topic identifiers ascending.
// Identifiers are canonical lowercase UUID strings, so byte order is total.
func CanonicalIdentifierPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// TouchesAny reports whether either label of the candidate is in labels
func TouchesAny(candidate EdgeCandidate, labels map[string]struct{}) bool {
	if _, ok := labels[candidate.LabelA]; ok {
		return true
	}
	_, ok := labels[candidate.LabelB]
	return ok
}

// ResolveCandidates maps each candidate's labels to topics through index,
// keyed by normalized label. A label with no topic means the candidate set and
// the graph's topics have diverged; that is an invariant violation and the
// whole batch is rejected.
func ResolveCandidates(candidates []EdgeCandidate, index map[string]*entities.Topic) ([]ResolvedPair, error) {
	pairs := make([]ResolvedPair, 0, len(candidates))
	for _, c := range candidates {
		a, ok := index[c.LabelA]
		if !ok || a == nil {
			return nil, apperrors.InvariantViolation("no topic for candidate label %q", c.LabelA)
		}
		b, ok := index[c.LabelB]
		if !ok || b == nil {
			return nil, apperrors.InvariantViolation("no topic for candidate label %q", c.LabelB)
		}
		if a.ID == b.ID {
			return nil, apperrors.InvariantViolation("candidate %q/%q resolves to a single topic %s", c.LabelA, c.LabelB, a.ID)
		}

		source, target := CanonicalIdentifierPair(a.ID, b.ID)
		pairs = append(pairs, ResolvedPair{
			SourceTopicID: source,
			TargetTopicID: target,
			Score:         c.Score,
		})
	}
	return pairs, nil
}

// RoundScore rounds a score to the given number of decimal places and clamps
// it to [0,1]. Negative precision leaves the score unrounded.
//
// Thresholds are applied to the unrounded score before this runs, so a
// stored score may sit just below a threshold finer than the precision:
// 1/3 passes a threshold of 0.33333 and is stored as 0.3333.
func RoundScore(score float64, precision int) float64 {
	if precision >= 0 {
		p := math.Pow10(precision)
		score = math.Round(score*p) / p
	}
	return math.Max(0, math.Min(1, score))
}
