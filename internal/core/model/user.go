package model

import (
	"time"
)

// UserState is a step in the user lifecycle.
type UserState string

const (
	// StateRegistered is reserved for accounts created without a profile. No operation produces it.
	StateRegistered        UserState = "REGISTERED"
	StateProfileIncomplete UserState = "PROFILE_INCOMPLETE"
	StateActive            UserState = "ACTIVE"
	StatePaused            UserState = "PAUSED"
	StateBanned            UserState = "BANNED"
)

type permissions struct {
	swipe         bool
	message       bool
	updateProfile bool
	discoverable  bool
}

var statePermissions = map[UserState]permissions{
	StateRegistered:        {swipe: false, message: false, updateProfile: true, discoverable: false},
	StateProfileIncomplete: {swipe: false, message: false, updateProfile: true, discoverable: false},
	StateActive:            {swipe: true, message: true, updateProfile: true, discoverable: true},
	StatePaused:            {swipe: false, message: false, updateProfile: true, discoverable: false},
	StateBanned:            {swipe: false, message: false, updateProfile: false, discoverable: false},
}

// ParseUserState validates a persisted state name.
func ParseUserState(s string) (UserState, error) {
	st := UserState(s)
	if _, ok := statePermissions[st]; !ok {
		return "", validationErrorf("unknown user state %q", s)
	}
	return st, nil
}

func (s UserState) CanSwipe() bool         { return statePermissions[s].swipe }
func (s UserState) CanMessage() bool       { return statePermissions[s].message }
func (s UserState) CanUpdateProfile() bool { return statePermissions[s].updateProfile }
func (s UserState) CanBeDiscovered() bool  { return statePermissions[s].discoverable }

// DiscoverableStates lists the states whose users may appear in discovery.
func DiscoverableStates() []UserState {
	var states []UserState
	for _, s := range []UserState{StateRegistered, StateProfileIncomplete, StateActive, StatePaused, StateBanned} {
		if s.CanBeDiscovered() {
			states = append(states, s)
		}
	}
	return states
}

// UserArgs are the mandatory arguments to create a User.
type UserArgs struct {
	// ID is the user id. A zero value generates a new one.
	ID UserID

	// Username is the login name.
	Username string

	// PasswordHash is the encoded password hash, if any.
	PasswordHash string

	// Profile is the initial profile.
	Profile Profile
}

// User is the aggregate root for a dating user.
type User struct {
	id           UserID
	username     string
	passwordHash string
	profile      Profile
	state        UserState
	banReason    string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a user. The initial state is ACTIVE when the profile is
// complete and PROFILE_INCOMPLETE otherwise.
func NewUser(args UserArgs, now time.Time) *User {
	id := args.ID
	if id.IsZero() {
		id = NewUserID()
	}
	state := StateProfileIncomplete
	if args.Profile.IsComplete() {
		state = StateActive
	}
	return &User{
		id:           id,
		username:     args.Username,
		passwordHash: args.PasswordHash,
		profile:      args.Profile,
		state:        state,
		createdAt:    now,
		updatedAt:    now,
	}
}

// UserRecord is the persisted form of a User.
type UserRecord struct {
	ID           UserID
	Username     string
	PasswordHash string
	Profile      Profile
	State        UserState
	BanReason    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RestoreUser rebuilds a User from storage without applying creation rules.
func RestoreUser(r UserRecord) *User {
	return &User{
		id:           r.ID,
		username:     r.Username,
		passwordHash: r.PasswordHash,
		profile:      r.Profile,
		state:        r.State,
		banReason:    r.BanReason,
		createdAt:    r.CreatedAt,
		updatedAt:    r.UpdatedAt,
	}
}

// Record returns the persisted form of the user.
func (u *User) Record() UserRecord {
	return UserRecord{
		ID:           u.id,
		Username:     u.username,
		PasswordHash: u.passwordHash,
		Profile:      u.profile,
		State:        u.state,
		BanReason:    u.banReason,
		CreatedAt:    u.createdAt,
		UpdatedAt:    u.updatedAt,
	}
}

func (u *User) ID() UserID           { return u.id }
func (u *User) Username() string     { return u.username }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Profile() Profile     { return u.profile }
func (u *User) State() UserState     { return u.state }
func (u *User) BanReason() string    { return u.banReason }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

func (u *User) CanSwipe() bool         { return u.state.CanSwipe() }
func (u *User) CanMessage() bool       { return u.state.CanMessage() }
func (u *User) CanUpdateProfile() bool { return u.state.CanUpdateProfile() }
func (u *User) CanBeDiscovered() bool  { return u.state.CanBeDiscovered() }

// Location is a shorthand for the profile location.
func (u *User) Location() (Location, bool) {
	return u.profile.Location()
}

// UpdateProfile replaces the profile. An incomplete user becomes ACTIVE once
// the new profile is complete.
func (u *User) UpdateProfile(p Profile, now time.Time) error {
	if !u.state.CanUpdateProfile() {
		return &StateError{From: u.state, Op: "update profile of"}
	}
	u.profile = p
	if u.state == StateProfileIncomplete && p.IsComplete() {
		u.state = StateActive
	}
	u.updatedAt = now
	return nil
}

// Activate moves the user to ACTIVE from PROFILE_INCOMPLETE or PAUSED.
func (u *User) Activate(now time.Time) error {
	if u.state != StateProfileIncomplete && u.state != StatePaused {
		return &StateError{From: u.state, Op: "activate"}
	}
	u.state = StateActive
	u.updatedAt = now
	return nil
}

// Pause moves an ACTIVE user to PAUSED.
func (u *User) Pause(now time.Time) error {
	if u.state != StateActive {
		return &StateError{From: u.state, Op: "pause"}
	}
	u.state = StatePaused
	u.updatedAt = now
	return nil
}

// Ban moves the user to BANNED from any state.
func (u *User) Ban(reason string, now time.Time) {
	u.state = StateBanned
	u.banReason = reason
	u.updatedAt = now
}
