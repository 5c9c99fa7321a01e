package model

import (
	"fmt"

	"github.com/google/uuid"
)

// UserID uniquely identifies a user. The zero value is not a valid id.
type UserID uuid.UUID

// NewUserID generates a random UserID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// ParseUserID parses the canonical textual form of a UserID.
func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("%w: invalid user id %q", ErrValidation, s)
	}
	return UserID(id), nil
}

// String returns the canonical lowercase hyphenated form.
func (id UserID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the id is unset.
func (id UserID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// SwipeID uniquely identifies a swipe.
type SwipeID uuid.UUID

// NewSwipeID generates a random SwipeID.
func NewSwipeID() SwipeID {
	return SwipeID(uuid.New())
}

// ParseSwipeID parses the canonical textual form of a SwipeID.
func ParseSwipeID(s string) (SwipeID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SwipeID{}, fmt.Errorf("%w: invalid swipe id %q", ErrValidation, s)
	}
	return SwipeID(id), nil
}

func (id SwipeID) String() string {
	return uuid.UUID(id).String()
}

// MatchID is the canonical identifier of a match: the two participant ids
// in lexicographic order joined by an underscore.
type MatchID string

// CanonicalMatchID derives the match id for a pair of users. The result does
// not depend on the argument order.
func CanonicalMatchID(a, b UserID) MatchID {
	low, high := orderPair(a, b)
	return MatchID(low.String() + "_" + high.String())
}

func (id MatchID) String() string {
	return string(id)
}

// orderPair returns the two ids ordered by their textual representation.
func orderPair(a, b UserID) (UserID, UserID) {
	if a.String() <= b.String() {
		return a, b
	}
	return b, a
}
