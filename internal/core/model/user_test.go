package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dummyTime = time.Now().Truncate(time.Second).UTC()
)

func TestUserState_Permissions(t *testing.T) {
	tests := []struct {
		state                                         UserState
		swipe, message, updateProfile, discoverable bool
	}{
		{state: StateRegistered, updateProfile: true},
		{state: StateProfileIncomplete, updateProfile: true},
		{state: StateActive, swipe: true, message: true, updateProfile: true, discoverable: true},
		{state: StatePaused, updateProfile: true},
		{state: StateBanned},
	}
	for _, test := range tests {
		t.Run(string(test.state), func(t *testing.T) {
			assert.Equal(t, test.swipe, test.state.CanSwipe())
			assert.Equal(t, test.message, test.state.CanMessage())
			assert.Equal(t, test.updateProfile, test.state.CanUpdateProfile())
			assert.Equal(t, test.discoverable, test.state.CanBeDiscovered())
		})
	}
	assert.Equal(t, []UserState{StateActive}, DiscoverableStates())
}

func TestNewUser_InitialState(t *testing.T) {
	complete, err := NewProfile(completeProfileArgs())
	require.NoError(t, err)
	incomplete, err := NewProfile(ProfileArgs{DisplayName: "Bob"})
	require.NoError(t, err)

	u := NewUser(UserArgs{Username: "alice", Profile: complete}, dummyTime)
	assert.Equal(t, StateActive, u.State())
	assert.False(t, u.ID().IsZero())
	assert.Equal(t, dummyTime, u.CreatedAt())
	assert.Equal(t, dummyTime, u.UpdatedAt())

	u = NewUser(UserArgs{Username: "bob", Profile: incomplete}, dummyTime)
	assert.Equal(t, StateProfileIncomplete, u.State())
}

func userInState(t *testing.T, state UserState) *User {
	t.Helper()
	p, err := NewProfile(ProfileArgs{DisplayName: "x"})
	require.NoError(t, err)
	return RestoreUser(UserRecord{ID: NewUserID(), Profile: p, State: state, CreatedAt: dummyTime, UpdatedAt: dummyTime})
}

func TestUser_Transitions(t *testing.T) {
	later := dummyTime.Add(time.Hour)
	allStates := []UserState{StateRegistered, StateProfileIncomplete, StateActive, StatePaused, StateBanned}

	tests := []struct {
		name    string
		op      func(u *User) error
		allowed map[UserState]UserState
	}{
		{
			name: "activate",
			op:   func(u *User) error { return u.Activate(later) },
			allowed: map[UserState]UserState{
				StateProfileIncomplete: StateActive,
				StatePaused:            StateActive,
			},
		},
		{
			name:    "pause",
			op:      func(u *User) error { return u.Pause(later) },
			allowed: map[UserState]UserState{StateActive: StatePaused},
		},
		{
			name: "ban",
			op:   func(u *User) error { u.Ban("spam", later); return nil },
			allowed: map[UserState]UserState{
				StateRegistered:        StateBanned,
				StateProfileIncomplete: StateBanned,
				StateActive:            StateBanned,
				StatePaused:            StateBanned,
				StateBanned:            StateBanned,
			},
		},
	}
	for _, test := range tests {
		for _, from := range allStates {
			t.Run(test.name+"/"+string(from), func(t *testing.T) {
				u := userInState(t, from)
				err := test.op(u)
				to, ok := test.allowed[from]
				if !ok {
					require.ErrorIs(t, err, ErrInvalidState)
					var stateErr *StateError
					require.ErrorAs(t, err, &stateErr)
					assert.Equal(t, from, stateErr.From)
					assert.Equal(t, from, u.State())
					assert.Equal(t, dummyTime, u.UpdatedAt())
					return
				}
				require.NoError(t, err)
				assert.Equal(t, to, u.State())
				assert.Equal(t, later, u.UpdatedAt())
			})
		}
	}
}

func TestUser_UpdateProfile(t *testing.T) {
	later := dummyTime.Add(time.Minute)
	complete, err := NewProfile(completeProfileArgs())
	require.NoError(t, err)
	partial, err := NewProfile(ProfileArgs{DisplayName: "partial"})
	require.NoError(t, err)

	t.Run("incomplete user becomes active with complete profile", func(t *testing.T) {
		u := userInState(t, StateProfileIncomplete)
		require.NoError(t, u.UpdateProfile(complete, later))
		assert.Equal(t, StateActive, u.State())
		assert.Equal(t, later, u.UpdatedAt())
		assert.Equal(t, complete, u.Profile())
	})
	t.Run("incomplete user stays incomplete with partial profile", func(t *testing.T) {
		u := userInState(t, StateProfileIncomplete)
		require.NoError(t, u.UpdateProfile(partial, later))
		assert.Equal(t, StateProfileIncomplete, u.State())
	})
	t.Run("paused user stays paused", func(t *testing.T) {
		u := userInState(t, StatePaused)
		require.NoError(t, u.UpdateProfile(complete, later))
		assert.Equal(t, StatePaused, u.State())
	})
	t.Run("banned user cannot update", func(t *testing.T) {
		u := userInState(t, StateBanned)
		err := u.UpdateProfile(complete, later)
		require.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, dummyTime, u.UpdatedAt())
	})
}

func TestUser_RecordRoundTrip(t *testing.T) {
	p, err := NewProfile(completeProfileArgs())
	require.NoError(t, err)
	u := NewUser(UserArgs{Username: "alice", PasswordHash: "hash", Profile: p}, dummyTime)
	u.Ban("fake", dummyTime)

	restored := RestoreUser(u.Record())
	assert.Equal(t, u, restored)
}
