// Package scoring computes how compatible a candidate is with a requester.
package scoring

import (
	"fmt"

	"github.com/rbroggi/datingha/internal/core/model"
)

// neutralScore is returned by a Scorer without strategies.
const neutralScore = 0.5

// Strategy scores a candidate against a requester in [0, 1].
type Strategy interface {
	// Score returns the compatibility in [0, 1].
	Score(candidate, requester *model.User) float64

	// Name identifies the strategy in configuration and logs.
	Name() string
}

// Scorer aggregates strategies by arithmetic mean.
type Scorer struct {
	strategies []Strategy
}

// NewScorer builds a Scorer. The strategy slice is copied, later changes to
// the caller's slice have no effect.
func NewScorer(strategies ...Strategy) *Scorer {
	return &Scorer{strategies: append([]Strategy(nil), strategies...)}
}

// Score is the mean of all strategy scores, or 0.5 with no strategies.
func (s *Scorer) Score(candidate, requester *model.User) float64 {
	if len(s.strategies) == 0 {
		return neutralScore
	}
	var total float64
	for _, strategy := range s.strategies {
		total += strategy.Score(candidate, requester)
	}
	return total / float64(len(s.strategies))
}

// Names lists the configured strategy names in order.
func (s *Scorer) Names() []string {
	names := make([]string, len(s.strategies))
	for i, strategy := range s.strategies {
		names[i] = strategy.Name()
	}
	return names
}

// DistanceStrategy favours closer candidates, linearly down to zero at the
// maximum distance.
type DistanceStrategy struct {
	max model.Distance
}

// NewDistanceStrategy builds a DistanceStrategy. A zero max scores every
// candidate as 0, including one at zero distance. NewScorerFromNames rejects it.
func NewDistanceStrategy(max model.Distance) *DistanceStrategy {
	return &DistanceStrategy{max: max}
}

// Score is 0 when either party has no location or when the distance exceeds
// the maximum. Otherwise it is 1 - distance/max.
func (d *DistanceStrategy) Score(candidate, requester *model.User) float64 {
	from, ok := requester.Location()
	if !ok {
		return 0
	}
	to, ok := candidate.Location()
	if !ok {
		return 0
	}
	dist := from.DistanceTo(to)
	if !dist.Within(d.max) || d.max.Km() == 0 {
		return 0
	}
	return 1 - dist.Km()/d.max.Km()
}

func (d *DistanceStrategy) Name() string { return "distance" }

// InterestsStrategy is the Jaccard similarity of both interest sets.
type InterestsStrategy struct{}

// NewInterestsStrategy builds an InterestsStrategy.
func NewInterestsStrategy() *InterestsStrategy {
	return &InterestsStrategy{}
}

// Score is |shared| / |union|, 0 when both sets are empty.
func (InterestsStrategy) Score(candidate, requester *model.User) float64 {
	mine := requester.Profile().Interests()
	theirs := candidate.Profile().Interests()
	shared := len(requester.Profile().SharedInterests(candidate.Profile()))
	union := len(mine) + len(theirs) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func (InterestsStrategy) Name() string { return "interests" }

// NewScorerFromNames builds a Scorer from strategy names. maxDistance
// configures the distance strategy and must be positive when it is used.
func NewScorerFromNames(names []string, maxDistance model.Distance) (*Scorer, error) {
	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch name {
		case "distance":
			if maxDistance.Km() <= 0 {
				return nil, fmt.Errorf("%w: distance strategy needs a positive max distance, got %v km", model.ErrValidation, maxDistance.Km())
			}
			strategies = append(strategies, NewDistanceStrategy(maxDistance))
		case "interests":
			strategies = append(strategies, NewInterestsStrategy())
		default:
			return nil, fmt.Errorf("%w: unknown scoring strategy %q", model.ErrValidation, name)
		}
	}
	return NewScorer(strategies...), nil
}
