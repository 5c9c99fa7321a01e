package model

import (
	"time"
)

// Match records that two users liked each other. The participants are kept
// in canonical order: UserLow sorts before UserHigh.
type Match struct {
	id           MatchID
	userLow      UserID
	userHigh     UserID
	createdAt    time.Time
	newlyCreated bool
}

// NewMatch creates a match between two distinct users. The argument order
// does not matter.
func NewMatch(a, b UserID, now time.Time) (*Match, error) {
	if a == b {
		return nil, validationErrorf("user %s cannot match with themselves", a)
	}
	low, high := orderPair(a, b)
	return &Match{
		id:           CanonicalMatchID(a, b),
		userLow:      low,
		userHigh:     high,
		createdAt:    now,
		newlyCreated: true,
	}, nil
}

// RestoreMatch rebuilds a Match from storage. The result is never marked as newly created.
func RestoreMatch(id MatchID, a, b UserID, createdAt time.Time) *Match {
	low, high := orderPair(a, b)
	return &Match{id: id, userLow: low, userHigh: high, createdAt: createdAt}
}

func (m *Match) ID() MatchID          { return m.id }
func (m *Match) UserLow() UserID      { return m.userLow }
func (m *Match) UserHigh() UserID     { return m.userHigh }
func (m *Match) CreatedAt() time.Time { return m.createdAt }

// NewlyCreated is true only on the instance built by NewMatch.
func (m *Match) NewlyCreated() bool { return m.newlyCreated }

// Involves reports whether id is a participant.
func (m *Match) Involves(id UserID) bool {
	return m.userLow == id || m.userHigh == id
}

// OtherUser returns the participant that is not id.
func (m *Match) OtherUser(id UserID) (UserID, error) {
	switch id {
	case m.userLow:
		return m.userHigh, nil
	case m.userHigh:
		return m.userLow, nil
	default:
		return UserID{}, notFoundErrorf("user %s is not part of match %s", id, m.id)
	}
}
