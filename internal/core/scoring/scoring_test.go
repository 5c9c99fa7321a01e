package scoring

import (
	"testing"
	"time"

	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userAt(t *testing.T, loc *model.Location, interests ...model.Interest) *model.User {
	t.Helper()
	p, err := model.NewProfile(model.ProfileArgs{DisplayName: "u", Location: loc, Interests: interests})
	require.NoError(t, err)
	return model.NewUser(model.UserArgs{Profile: p}, time.Now())
}

func locPtr(lat, lon float64) *model.Location {
	l := model.MustLocation(lat, lon)
	return &l
}

type fixedStrategy struct {
	score float64
}

func (f fixedStrategy) Score(*model.User, *model.User) float64 { return f.score }
func (f fixedStrategy) Name() string                           { return "fixed" }

func TestDistanceStrategy(t *testing.T) {
	alice := userAt(t, locPtr(40.7128, -74.0060))
	bob := userAt(t, locPtr(40.7306, -73.9352))
	far := userAt(t, locPtr(42.3601, -71.0589))
	nowhere := userAt(t, nil)

	strategy := NewDistanceStrategy(model.Kilometers(100))
	assert.Equal(t, "distance", strategy.Name())

	tests := []struct {
		name      string
		candidate *model.User
		requester *model.User
		assertion func(t *testing.T, score float64)
	}{
		{
			name:      "close candidate scores high",
			candidate: bob,
			requester: alice,
			assertion: func(t *testing.T, score float64) {
				assert.Greater(t, score, 0.9)
				assert.LessOrEqual(t, score, 1.0)
			},
		},
		{
			name:      "same location scores one",
			candidate: alice,
			requester: alice,
			assertion: func(t *testing.T, score float64) { assert.Equal(t, 1.0, score) },
		},
		{
			name:      "beyond max scores zero",
			candidate: far,
			requester: alice,
			assertion: func(t *testing.T, score float64) { assert.Equal(t, 0.0, score) },
		},
		{
			name:      "candidate without location scores zero",
			candidate: nowhere,
			requester: alice,
			assertion: func(t *testing.T, score float64) { assert.Equal(t, 0.0, score) },
		},
		{
			name:      "requester without location scores zero",
			candidate: bob,
			requester: nowhere,
			assertion: func(t *testing.T, score float64) { assert.Equal(t, 0.0, score) },
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.assertion(t, strategy.Score(test.candidate, test.requester))
		})
	}
}

func TestInterestsStrategy(t *testing.T) {
	a := userAt(t, nil, model.InterestMusic, model.InterestArt, model.InterestHiking)
	b := userAt(t, nil, model.InterestMusic, model.InterestArt, model.InterestGaming)
	none := userAt(t, nil)

	s := NewInterestsStrategy()
	assert.InDelta(t, 0.5, s.Score(b, a), 1e-9)
	assert.Equal(t, 1.0, s.Score(a, a))
	assert.Equal(t, 0.0, s.Score(none, none))
	assert.Equal(t, 0.0, s.Score(none, a))
}

func TestScorer(t *testing.T) {
	u := userAt(t, nil)

	assert.Equal(t, 0.5, NewScorer().Score(u, u))
	assert.Equal(t, 0.5, NewScorer(fixedStrategy{0.2}, fixedStrategy{0.8}).Score(u, u))
	assert.InDelta(t, 0.3, NewScorer(fixedStrategy{0.3}).Score(u, u), 1e-9)

	strategies := []Strategy{fixedStrategy{1}}
	scorer := NewScorer(strategies...)
	strategies[0] = fixedStrategy{0}
	assert.Equal(t, 1.0, scorer.Score(u, u))
}

func TestNewScorerFromNames(t *testing.T) {
	scorer, err := NewScorerFromNames([]string{"distance", "interests"}, model.Kilometers(50))
	require.NoError(t, err)
	assert.Equal(t, []string{"distance", "interests"}, scorer.Names())

	_, err = NewScorerFromNames([]string{"astrology"}, model.Kilometers(50))
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = NewScorerFromNames([]string{"distance"}, model.Kilometers(0))
	require.ErrorIs(t, err, model.ErrValidation, "a zero max distance cannot score zero distance as 1")

	scorer, err = NewScorerFromNames([]string{"interests"}, model.Kilometers(0))
	require.NoError(t, err, "max distance is irrelevant without the distance strategy")
	assert.Equal(t, []string{"interests"}, scorer.Names())
}
