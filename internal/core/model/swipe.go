package model

import (
	"time"
)

// SwipeDirection is the one-sided decision a user takes on another.
type SwipeDirection string

const (
	SwipeLike      SwipeDirection = "LIKE"
	SwipeDislike   SwipeDirection = "DISLIKE"
	SwipeSuperLike SwipeDirection = "SUPER_LIKE"
)

// ParseSwipeDirection validates a direction name.
func ParseSwipeDirection(s string) (SwipeDirection, error) {
	d := SwipeDirection(s)
	if !d.valid() {
		return "", validationErrorf("unknown swipe direction %q", s)
	}
	return d, nil
}

func (d SwipeDirection) valid() bool {
	return d == SwipeLike || d == SwipeDislike || d == SwipeSuperLike
}

// IsLike is true for LIKE and SUPER_LIKE.
func (d SwipeDirection) IsLike() bool {
	return d == SwipeLike || d == SwipeSuperLike
}

// Swipe is an immutable record of one user's decision on another.
type Swipe struct {
	id        SwipeID
	swiperID  UserID
	targetID  UserID
	direction SwipeDirection
	createdAt time.Time
}

// NewSwipe creates a swipe. Users cannot swipe on themselves.
func NewSwipe(swiperID, targetID UserID, direction SwipeDirection, now time.Time) (*Swipe, error) {
	if swiperID == targetID {
		return nil, validationErrorf("user %s cannot swipe on themselves", swiperID)
	}
	if !direction.valid() {
		return nil, validationErrorf("unknown swipe direction %q", direction)
	}
	return &Swipe{
		id:        NewSwipeID(),
		swiperID:  swiperID,
		targetID:  targetID,
		direction: direction,
		createdAt: now,
	}, nil
}

// RestoreSwipe rebuilds a Swipe from storage.
func RestoreSwipe(id SwipeID, swiperID, targetID UserID, direction SwipeDirection, createdAt time.Time) *Swipe {
	return &Swipe{id: id, swiperID: swiperID, targetID: targetID, direction: direction, createdAt: createdAt}
}

func (s *Swipe) ID() SwipeID               { return s.id }
func (s *Swipe) SwiperID() UserID          { return s.swiperID }
func (s *Swipe) TargetID() UserID          { return s.targetID }
func (s *Swipe) Direction() SwipeDirection { return s.direction }
func (s *Swipe) CreatedAt() time.Time      { return s.createdAt }

// IsLike reports whether the swipe expresses interest.
func (s *Swipe) IsLike() bool { return s.direction.IsLike() }
