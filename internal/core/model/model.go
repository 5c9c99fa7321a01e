package model

import (
	"time"
)

// Prospect is a scored candidate returned by discovery. It is computed on
// demand and never persisted.
type Prospect struct {
	// UserID identifies the candidate.
	UserID UserID

	// DisplayName is the candidate display name.
	DisplayName string

	// Age is the candidate age in whole years.
	Age int

	// Bio is the candidate bio.
	Bio string

	// PhotoURLs are the candidate photos.
	PhotoURLs []string

	// Distance between requester and candidate.
	Distance Distance

	// SharedInterests is the intersection of both interest sets.
	SharedInterests []Interest

	// Score is the aggregated compatibility in [0, 1].
	Score float64
}

// EventType discriminates domain events on the wire.
type EventType string

const (
	EventTypeUserSwiped   EventType = "user_swiped"
	EventTypeMatchCreated EventType = "match_created"
)

// Event is a domain event. The set of variants is closed: UserSwipedEvent and MatchCreatedEvent.
type Event interface {
	// Type returns the event discriminator.
	Type() EventType

	// OccurredAt is when the event happened.
	OccurredAt() time.Time

	isEvent()
}

// UserSwipedEvent is emitted when a user swipes on another.
type UserSwipedEvent struct {
	SwiperID  UserID
	TargetID  UserID
	Direction SwipeDirection
	At        time.Time
}

func (UserSwipedEvent) Type() EventType         { return EventTypeUserSwiped }
func (e UserSwipedEvent) OccurredAt() time.Time { return e.At }
func (UserSwipedEvent) isEvent()                {}

// MatchCreatedEvent is emitted once per newly persisted match.
type MatchCreatedEvent struct {
	MatchID MatchID
	UserA   UserID
	UserB   UserID
	At      time.Time
}

func (MatchCreatedEvent) Type() EventType         { return EventTypeMatchCreated }
func (e MatchCreatedEvent) OccurredAt() time.Time { return e.At }
func (MatchCreatedEvent) isEvent()                {}

// NewMatchCreatedEvent builds the event announcing m.
func NewMatchCreatedEvent(m *Match, at time.Time) MatchCreatedEvent {
	return MatchCreatedEvent{MatchID: m.ID(), UserA: m.UserLow(), UserB: m.UserHigh(), At: at}
}

// MatchNotification tells one participant about a new match.
type MatchNotification struct {
	// RecipientID is the user being notified.
	RecipientID UserID

	// MatchID is the match the notification is about.
	MatchID MatchID

	// PartnerID is the other participant.
	PartnerID UserID

	// PartnerDisplayName is the other participant display name.
	PartnerDisplayName string

	// OccurredAt is when the match was created.
	OccurredAt time.Time
}
