package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rbroggi/datingha/internal/actors/repotest"
	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDBMapping(t *testing.T) {
	created := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	t.Run("complete user", func(t *testing.T) {
		u := repotest.NewUser(t, "alice", 40.7, -74.0, created)
		row := toUserDB(u)
		require.NotNil(t, row.Latitude)
		assert.Equal(t, 40.7, *row.Latitude)
		assert.Equal(t, []string{"MUSIC", "TRAVEL"}, row.Interests)
		require.NotNil(t, row.AgeMin)
		assert.Equal(t, 25, *row.AgeMin)

		back, err := row.toModel()
		require.NoError(t, err)
		assert.Equal(t, u.Record(), back.Record())
	})

	t.Run("user without location or preferences", func(t *testing.T) {
		p, err := model.NewProfile(model.ProfileArgs{DisplayName: "bob"})
		require.NoError(t, err)
		u := model.NewUser(model.UserArgs{Username: "bob", Profile: p}, created)
		row := toUserDB(u)
		assert.Nil(t, row.Latitude)
		assert.Nil(t, row.AgeMin)
		assert.Nil(t, row.MaxDistanceKm)

		back, err := row.toModel()
		require.NoError(t, err)
		_, ok := back.Location()
		assert.False(t, ok)
		assert.Equal(t, model.StateProfileIncomplete, back.State())
	})

	t.Run("corrupted state", func(t *testing.T) {
		row := toUserDB(repotest.NewUser(t, "carol", 1, 1, created))
		row.State = "DELETED"
		_, err := row.toModel()
		require.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestInteractionMapping(t *testing.T) {
	a, b := model.NewUserID(), model.NewUserID()
	at := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	s, err := model.NewSwipe(a, b, model.SwipeSuperLike, at)
	require.NoError(t, err)
	assert.Equal(t, s, toSwipeDB(s).toModel())

	m, err := model.NewMatch(a, b, at)
	require.NoError(t, err)
	back := toMatchDB(m).toModel()
	assert.Equal(t, m.ID(), back.ID())
	assert.Equal(t, m.UserLow(), back.UserLow())
	assert.False(t, back.NewlyCreated())
}

type fakePGError struct {
	fields map[byte]string
}

func (e fakePGError) Error() string { return "ERROR #" + e.fields['C'] }
func (e fakePGError) Field(field byte) string { return e.fields[field] }
func (e fakePGError) IntegrityViolation() bool { return e.fields['C'][:2] == "23" }

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "username taken", err: fakePGError{fields: map[byte]string{'C': "23505", 'n': "users_username_key"}}, want: true},
		{name: "wrapped", err: fmt.Errorf("insert: %w", fakePGError{fields: map[byte]string{'C': "23505", 'n': "users_username_key"}}), want: true},
		{name: "other constraint", err: fakePGError{fields: map[byte]string{'C': "23505", 'n': "users_pkey"}}, want: false},
		{name: "not null violation", err: fakePGError{fields: map[byte]string{'C': "23502", 'n': "users_username_key"}}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err, usernameConstraint))
		})
	}
}
