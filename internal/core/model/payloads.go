package model

// RegisterUserArgs are the arguments to register a user.
type RegisterUserArgs struct {
	// Username is the unique login name.
	Username string

	// Password is the plain-text password. It is hashed before storage.
	Password string

	// Profile is the initial profile.
	Profile ProfileArgs
}

// RegisterUserResponse is the result of a registration.
type RegisterUserResponse struct {
	// User is the created user.
	User *User
}

// UpdateProfileArgs are the arguments to replace a user profile.
type UpdateProfileArgs struct {
	// ID of the user.
	ID UserID

	// Profile is the new profile.
	Profile ProfileArgs
}

// UpdateProfileResponse is the result of a profile update.
type UpdateProfileResponse struct {
	// User is the updated user.
	User *User
}

// DiscoverArgs are the arguments to discover prospects for a user.
type DiscoverArgs struct {
	// UserID is the requester.
	UserID UserID

	// RadiusKm is the search radius. Zero uses the requester preference or the service default.
	RadiusKm float64

	// Limit is the maximum amount of prospects. Zero uses the service default.
	Limit int

	// ExcludedIDs are additional users to leave out.
	ExcludedIDs []UserID
}

// DiscoverResponse is the result of a discovery.
type DiscoverResponse struct {
	// Prospects ordered by descending score.
	Prospects []Prospect
}

// SwipeArgs are the arguments of a swipe issued by an authenticated user.
type SwipeArgs struct {
	SwiperID  UserID
	TargetID  UserID
	Direction SwipeDirection
}

// SwipeResponse is the result of a swipe.
type SwipeResponse struct {
	// Match is set when the swipe completed a mutual like.
	Match *Match

	// Partner is the other participant of Match, if any.
	Partner *User
}

// MatchView is a match seen from one participant.
type MatchView struct {
	// Match is the stored match.
	Match *Match

	// Partner is the other participant.
	Partner *User
}

// ListMatchesResponse is the result of listing the matches of a user.
type ListMatchesResponse struct {
	// Matches ordered from newest to oldest.
	Matches []MatchView
}
