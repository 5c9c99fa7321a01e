// Package repotest holds behaviour checks shared by every repository adapter.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/rbroggi/datingha/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dummyTime = time.Now().Truncate(time.Second).UTC()
)

// NewUser builds an ACTIVE user at the given coordinates with a complete profile.
func NewUser(t *testing.T, username string, lat, lon float64, createdAt time.Time) *model.User {
	t.Helper()
	loc := model.MustLocation(lat, lon)
	ageRange, err := model.NewAgeRange(25, 40)
	require.NoError(t, err)
	maxDistance := model.Kilometers(30)
	p, err := model.NewProfile(model.ProfileArgs{
		DisplayName: username,
		Bio:         "bio of " + username,
		BirthDate:   time.Date(1992, time.April, 10, 0, 0, 0, 0, time.UTC),
		Interests:   []model.Interest{model.InterestTravel, model.InterestMusic},
		Preferences: model.Preferences{InterestedIn: []string{"women", "men"}, AgeRange: &ageRange, MaxDistance: &maxDistance},
		Location:    &loc,
		PhotoURLs:   []string{"https://img/" + username + ".jpg"},
	})
	require.NoError(t, err)
	return model.NewUser(model.UserArgs{Username: username, PasswordHash: "hash", Profile: p}, createdAt)
}

// UserRepository checks persistence and radius queries. It expects an empty store.
func UserRepository(t *testing.T, repo ports.UserRepository) {
	ctx := context.Background()

	alice := NewUser(t, "alice", 40.7, -74.0, dummyTime)
	require.NoError(t, repo.Save(ctx, alice))

	got, err := repo.FindByID(ctx, alice.ID())
	require.NoError(t, err)
	assert.Equal(t, alice.Record(), got.Record())

	got, err = repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID(), got.ID())

	_, err = repo.FindByID(ctx, model.NewUserID())
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.FindByUsername(ctx, "nobody")
	require.ErrorIs(t, err, model.ErrNotFound)

	exists, err := repo.ExistsByID(ctx, alice.ID())
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, alice.Pause(dummyTime.Add(time.Minute)))
	require.NoError(t, repo.Save(ctx, alice))
	got, err = repo.FindByID(ctx, alice.ID())
	require.NoError(t, err)
	assert.Equal(t, model.StatePaused, got.State())
	assert.Equal(t, dummyTime.Add(time.Minute), got.UpdatedAt())

	middle := NewUser(t, "middle", 40.8, -74.1, dummyTime.Add(time.Second))
	closest := NewUser(t, "closest", 40.71, -74.01, dummyTime.Add(2*time.Second))
	far := NewUser(t, "far", 42.36, -71.06, dummyTime.Add(3*time.Second))
	for _, u := range []*model.User{middle, closest, far} {
		require.NoError(t, repo.Save(ctx, u))
	}

	center := model.MustLocation(40.7, -74.0)
	users, err := repo.FindDiscoverableInRadius(ctx, center, model.Kilometers(50), 10)
	require.NoError(t, err)
	require.Len(t, users, 2, "paused and far users are not discoverable")
	assert.Equal(t, []model.UserID{closest.ID(), middle.ID()}, []model.UserID{users[0].ID(), users[1].ID()}, "nearest first")

	users, err = repo.FindDiscoverableInRadius(ctx, center, model.Kilometers(50), 1)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, closest.ID(), users[0].ID(), "the limit keeps the nearest users")

	closestLoc, _ := closest.Location()
	users, err = repo.FindDiscoverableInRadius(ctx, center, center.DistanceTo(closestLoc), 10)
	require.NoError(t, err)
	require.Len(t, users, 1, "radius boundary is inclusive")
	assert.Equal(t, closest.ID(), users[0].ID())
}

// UniqueUsernames checks that a username cannot be claimed by a second user
// while empty usernames never collide. It expects an empty store.
func UniqueUsernames(t *testing.T, repo ports.UserRepository) {
	ctx := context.Background()
	owner := NewUser(t, "taken", 10, 10, dummyTime)
	require.NoError(t, repo.Save(ctx, owner))
	require.NoError(t, repo.Save(ctx, owner), "saving the owner again is an update")

	err := repo.Save(ctx, NewUser(t, "taken", 10, 10, dummyTime))
	require.ErrorIs(t, err, model.ErrValidation)

	got, err := repo.FindByUsername(ctx, "taken")
	require.NoError(t, err)
	assert.Equal(t, owner.ID(), got.ID())

	require.NoError(t, repo.Save(ctx, NewUser(t, "", 10, 10, dummyTime)))
	require.NoError(t, repo.Save(ctx, NewUser(t, "", 10, 10, dummyTime)))
}

// SwipeRepository checks insert-if-absent semantics and the secondary queries. It expects an empty store.
func SwipeRepository(t *testing.T, repo ports.SwipeRepository) {
	ctx := context.Background()
	a, b, c := model.NewUserID(), model.NewUserID(), model.NewUserID()

	like, err := model.NewSwipe(a, b, model.SwipeLike, dummyTime)
	require.NoError(t, err)
	stored, created, err := repo.SaveIfNotExists(ctx, like)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, like.ID(), stored.ID())

	dislike, err := model.NewSwipe(a, b, model.SwipeDislike, dummyTime.Add(time.Minute))
	require.NoError(t, err)
	stored, created, err = repo.SaveIfNotExists(ctx, dislike)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, like.ID(), stored.ID())
	assert.Equal(t, model.SwipeLike, stored.Direction())
	assert.Equal(t, dummyTime, stored.CreatedAt())

	superLike, err := model.NewSwipe(c, b, model.SwipeSuperLike, dummyTime)
	require.NoError(t, err)
	_, _, err = repo.SaveIfNotExists(ctx, superLike)
	require.NoError(t, err)
	pass, err := model.NewSwipe(a, c, model.SwipeDislike, dummyTime)
	require.NoError(t, err)
	_, _, err = repo.SaveIfNotExists(ctx, pass)
	require.NoError(t, err)

	found, err := repo.FindByPair(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, like.ID(), found.ID())
	_, err = repo.FindByPair(ctx, b, a)
	require.ErrorIs(t, err, model.ErrNotFound)

	swiped, err := repo.FindSwipedUserIDs(ctx, a)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.UserID{b, c}, swiped)

	likers, err := repo.FindPendingLikersFor(ctx, b)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.UserID{a, c}, likers)

	likers, err = repo.FindPendingLikersFor(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, likers)
}

// ConcurrentSwipes checks that racing inserts on one pair store exactly one swipe.
func ConcurrentSwipes(t *testing.T, repo ports.SwipeRepository) {
	ctx := context.Background()
	a, b := model.NewUserID(), model.NewUserID()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	ids := map[model.SwipeID]struct{}{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := model.NewSwipe(a, b, model.SwipeLike, dummyTime)
			if err != nil {
				t.Error(err)
				return
			}
			stored, ok, err := repo.SaveIfNotExists(ctx, s)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ok {
				created++
			}
			ids[stored.ID()] = struct{}{}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
}

// MatchRepository checks insert-if-absent semantics and lookups. It expects an empty store.
func MatchRepository(t *testing.T, repo ports.MatchRepository) {
	ctx := context.Background()
	a, b, c := model.NewUserID(), model.NewUserID(), model.NewUserID()

	m, err := model.NewMatch(a, b, dummyTime)
	require.NoError(t, err)
	stored, created, err := repo.SaveIfNotExists(ctx, m)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, m.ID(), stored.ID())

	again, err := model.NewMatch(b, a, dummyTime.Add(time.Hour))
	require.NoError(t, err)
	stored, created, err = repo.SaveIfNotExists(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, stored.NewlyCreated())
	assert.Equal(t, dummyTime, stored.CreatedAt())

	found, err := repo.FindByID(ctx, model.CanonicalMatchID(b, a))
	require.NoError(t, err)
	assert.Equal(t, m.UserLow(), found.UserLow())
	assert.Equal(t, m.UserHigh(), found.UserHigh())
	assert.False(t, found.NewlyCreated())

	_, err = repo.FindByID(ctx, model.CanonicalMatchID(a, c))
	require.ErrorIs(t, err, model.ErrNotFound)

	other, err := model.NewMatch(c, a, dummyTime.Add(time.Minute))
	require.NoError(t, err)
	_, _, err = repo.SaveIfNotExists(ctx, other)
	require.NoError(t, err)

	matches, err := repo.FindByUser(ctx, a)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	matches, err = repo.FindByUser(ctx, b)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, m.ID(), matches[0].ID())
	matches, err = repo.FindByUser(ctx, model.NewUserID())
	require.NoError(t, err)
	assert.Empty(t, matches)
}
