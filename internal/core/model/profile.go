package model

import (
	"sort"
	"strings"
	"time"
)

// Interest is a hobby or topic a user can declare on the profile.
type Interest string

const (
	InterestHiking      Interest = "HIKING"
	InterestMusic       Interest = "MUSIC"
	InterestTravel      Interest = "TRAVEL"
	InterestMovies      Interest = "MOVIES"
	InterestReading     Interest = "READING"
	InterestCooking     Interest = "COOKING"
	InterestGaming      Interest = "GAMING"
	InterestFitness     Interest = "FITNESS"
	InterestPhotography Interest = "PHOTOGRAPHY"
	InterestArt         Interest = "ART"
)

var knownInterests = map[Interest]struct{}{
	InterestHiking: {}, InterestMusic: {}, InterestTravel: {}, InterestMovies: {}, InterestReading: {},
	InterestCooking: {}, InterestGaming: {}, InterestFitness: {}, InterestPhotography: {}, InterestArt: {},
}

// ParseInterest converts a name (case-insensitive) into an Interest.
func ParseInterest(s string) (Interest, error) {
	i := Interest(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := knownInterests[i]; !ok {
		return "", validationErrorf("unknown interest %q", s)
	}
	return i, nil
}

// AgeRange is an inclusive range of acceptable ages.
type AgeRange struct {
	min int
	max int
}

// NewAgeRange validates 18 <= min <= max <= 120.
func NewAgeRange(min, max int) (AgeRange, error) {
	if min < 18 {
		return AgeRange{}, validationErrorf("minimum age %d must be at least 18", min)
	}
	if max < min {
		return AgeRange{}, validationErrorf("maximum age %d must be at least the minimum %d", max, min)
	}
	if max > 120 {
		return AgeRange{}, validationErrorf("maximum age %d must be at most 120", max)
	}
	return AgeRange{min: min, max: max}, nil
}

func (r AgeRange) Min() int { return r.min }
func (r AgeRange) Max() int { return r.max }

// Contains reports whether age lies in the range, bounds included.
func (r AgeRange) Contains(age int) bool {
	return age >= r.min && age <= r.max
}

// Preferences describe who a user wants to see.
type Preferences struct {
	// InterestedIn is the set of genders or categories the user is interested in.
	InterestedIn []string

	// AgeRange restricts the acceptable age of candidates. Nil means any age.
	AgeRange *AgeRange

	// MaxDistance is the preferred search radius. Nil means the service default.
	MaxDistance *Distance
}

// Matches reports whether the profile satisfies the age preference at the given instant.
func (p Preferences) Matches(profile Profile, at time.Time) bool {
	if p.AgeRange == nil {
		return true
	}
	return p.AgeRange.Contains(profile.Age(at))
}

const maxPhotos = 2

// ProfileArgs gathers the inputs of a Profile.
type ProfileArgs struct {
	DisplayName string
	Bio         string
	// BirthDate zero-value means unset.
	BirthDate   time.Time
	Interests   []Interest
	Preferences Preferences
	// Location nil means unset.
	Location  *Location
	PhotoURLs []string
}

// Profile is an immutable snapshot of what a user shows to others.
type Profile struct {
	displayName string
	bio         string
	birthDate   time.Time
	interests   []Interest
	preferences Preferences
	location    *Location
	photoURLs   []string
}

// NewProfile validates the arguments and builds a Profile. Interests are
// deduplicated and sorted.
func NewProfile(args ProfileArgs) (Profile, error) {
	if len(args.PhotoURLs) > maxPhotos {
		return Profile{}, validationErrorf("at most %d photos allowed, got %d", maxPhotos, len(args.PhotoURLs))
	}
	seen := make(map[Interest]struct{}, len(args.Interests))
	interests := make([]Interest, 0, len(args.Interests))
	for _, i := range args.Interests {
		if _, ok := knownInterests[i]; !ok {
			return Profile{}, validationErrorf("unknown interest %q", i)
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		interests = append(interests, i)
	}
	sort.Slice(interests, func(a, b int) bool { return interests[a] < interests[b] })

	var loc *Location
	if args.Location != nil {
		l := *args.Location
		loc = &l
	}
	prefs := args.Preferences
	prefs.InterestedIn = append([]string(nil), prefs.InterestedIn...)

	return Profile{
		displayName: args.DisplayName,
		bio:         args.Bio,
		birthDate:   args.BirthDate,
		interests:   interests,
		preferences: prefs,
		location:    loc,
		photoURLs:   append([]string(nil), args.PhotoURLs...),
	}, nil
}

func (p Profile) DisplayName() string      { return p.displayName }
func (p Profile) Bio() string              { return p.bio }
func (p Profile) BirthDate() time.Time     { return p.birthDate }
func (p Profile) Preferences() Preferences { return p.preferences }

// Interests returns a copy of the sorted interest set.
func (p Profile) Interests() []Interest {
	return append([]Interest(nil), p.interests...)
}

// PhotoURLs returns a copy of the photo urls.
func (p Profile) PhotoURLs() []string {
	return append([]string(nil), p.photoURLs...)
}

// Location returns the profile location and whether it is set.
func (p Profile) Location() (Location, bool) {
	if p.location == nil {
		return Location{}, false
	}
	return *p.location, true
}

// IsComplete reports whether the profile has a display name, a birth date,
// a location and at least one photo.
func (p Profile) IsComplete() bool {
	return strings.TrimSpace(p.displayName) != "" &&
		!p.birthDate.IsZero() &&
		p.location != nil &&
		len(p.photoURLs) > 0
}

// Age returns the age in whole years at the given instant. It is 0 when no
// birth date is set.
func (p Profile) Age(at time.Time) int {
	if p.birthDate.IsZero() {
		return 0
	}
	by, bm, bd := p.birthDate.Date()
	y, m, d := at.In(p.birthDate.Location()).Date()
	age := y - by
	if m < bm || (m == bm && d < bd) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// SharedInterests returns the sorted intersection of both interest sets.
func (p Profile) SharedInterests(other Profile) []Interest {
	theirs := make(map[Interest]struct{}, len(other.interests))
	for _, i := range other.interests {
		theirs[i] = struct{}{}
	}
	shared := make([]Interest, 0)
	for _, i := range p.interests {
		if _, ok := theirs[i]; ok {
			shared = append(shared, i)
		}
	}
	return shared
}

// Args returns the arguments that rebuild this profile.
func (p Profile) Args() ProfileArgs {
	args := ProfileArgs{
		DisplayName: p.displayName,
		Bio:         p.bio,
		BirthDate:   p.birthDate,
		Interests:   p.Interests(),
		Preferences: p.preferences,
		PhotoURLs:   p.PhotoURLs(),
	}
	if p.location != nil {
		l := *p.location
		args.Location = &l
	}
	args.Preferences.InterestedIn = append([]string(nil), p.preferences.InterestedIn...)
	return args
}
