package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/rbroggi/datingha/internal/core/ports"
	"github.com/rbroggi/datingha/internal/core/scoring"
	log "github.com/sirupsen/logrus"
)

const (
	defaultRadiusKm = 50
	defaultLimit    = 20
)

// MatchingServiceArgs contains the mandatory arguments for the MatchingService.
type MatchingServiceArgs struct {
	// Scorer ranks prospects.
	Scorer *scoring.Scorer

	// Users is the user repository.
	Users ports.UserRepository

	// Swipes is the swipe repository.
	Swipes ports.SwipeRepository

	// Matches is the match repository.
	Matches ports.MatchRepository

	// Publisher announces newly created matches.
	Publisher ports.EventPublisher
}

// MatchingServiceOptArgs are the optional arguments for building a MatchingService.
type MatchingServiceOptArgs = func(*MatchingService)

// WithMatchingNowFunc can be used to override the nowFunc. Useful for testing.
func WithMatchingNowFunc(nowFunc func() time.Time) MatchingServiceOptArgs {
	return func(s *MatchingService) {
		s.nowFunc = nowFunc
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder ports.MatchingRecorder) MatchingServiceOptArgs {
	return func(s *MatchingService) {
		s.recorder = recorder
	}
}

// WithDefaults overrides the radius and limit used by Discover when the request leaves them unset.
func WithDefaults(radius model.Distance, limit int) MatchingServiceOptArgs {
	return func(s *MatchingService) {
		s.defaultRadius = radius
		s.defaultLimit = limit
	}
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(args MatchingServiceArgs, optArgs ...MatchingServiceOptArgs) *MatchingService {
	s := &MatchingService{
		scorer:        args.Scorer,
		users:         args.Users,
		swipes:        args.Swipes,
		matches:       args.Matches,
		publisher:     args.Publisher,
		recorder:      noopRecorder{},
		nowFunc:       func() time.Time { return time.Now().UTC() },
		defaultRadius: model.Kilometers(defaultRadiusKm),
		defaultLimit:  defaultLimit,
	}
	if s.scorer == nil {
		s.scorer = scoring.NewScorer()
	}
	for _, opt := range optArgs {
		opt(s)
	}
	return s
}

// MatchingService turns discovery requests into ranked prospects and mutual
// likes into matches.
type MatchingService struct {
	scorer        *scoring.Scorer
	users         ports.UserRepository
	swipes        ports.SwipeRepository
	matches       ports.MatchRepository
	publisher     ports.EventPublisher
	recorder      ports.MatchingRecorder
	nowFunc       func() time.Time
	defaultRadius model.Distance
	defaultLimit  int
}

// FindProspects returns up to limit discoverable users within radius of the
// requester, ordered by descending score. Ties are broken by ascending
// distance and then by repository order. The requester, excludedIDs and
// users the requester already swiped on never appear.
func (s *MatchingService) FindProspects(ctx context.Context, requester *model.User, radius model.Distance, limit int, excludedIDs []model.UserID) ([]model.Prospect, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", model.ErrValidation, limit)
	}
	center, ok := requester.Location()
	if !ok {
		return nil, fmt.Errorf("%w: requester %s has no location", model.ErrValidation, requester.ID())
	}

	candidates, err := s.users.FindDiscoverableInRadius(ctx, center, radius, limit*2)
	if err != nil {
		return nil, fmt.Errorf("error finding discoverable users: %w", err)
	}
	swiped, err := s.swipes.FindSwipedUserIDs(ctx, requester.ID())
	if err != nil {
		return nil, fmt.Errorf("error finding swiped users: %w", err)
	}

	excluded := make(map[model.UserID]struct{}, len(excludedIDs)+len(swiped)+1)
	excluded[requester.ID()] = struct{}{}
	for _, id := range excludedIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range swiped {
		excluded[id] = struct{}{}
	}

	now := s.nowFunc()
	prospects := make([]model.Prospect, 0, len(candidates))
	for _, candidate := range candidates {
		if _, skip := excluded[candidate.ID()]; skip {
			continue
		}
		loc, ok := candidate.Location()
		if !ok {
			continue
		}
		profile := candidate.Profile()
		prospects = append(prospects, model.Prospect{
			UserID:          candidate.ID(),
			DisplayName:     profile.DisplayName(),
			Age:             profile.Age(now),
			Bio:             profile.Bio(),
			PhotoURLs:       profile.PhotoURLs(),
			Distance:        center.DistanceTo(loc),
			SharedInterests: requester.Profile().SharedInterests(profile),
			Score:           s.scorer.Score(candidate, requester),
		})
	}

	sort.SliceStable(prospects, func(i, j int) bool {
		if prospects[i].Score != prospects[j].Score {
			return prospects[i].Score > prospects[j].Score
		}
		return prospects[i].Distance.Km() < prospects[j].Distance.Km()
	})
	if len(prospects) > limit {
		prospects = prospects[:limit]
	}
	s.recorder.RecordProspectsServed(len(prospects))
	return prospects, nil
}

// ProcessSwipe records the swipe and, when it completes a mutual like,
// returns the match. A nil match means no match. Repeating a swipe is
// harmless: the first stored swipe wins and an existing match is returned
// as is. MatchCreatedEvent is published only by the call that persisted the
// match, so it is never published twice. Delivery is at most once: when
// publishing fails the match stays persisted, the error is returned and later
// calls find the existing match without publishing again.
func (s *MatchingService) ProcessSwipe(ctx context.Context, swiperID, targetID model.UserID, direction model.SwipeDirection) (*model.Match, error) {
	now := s.nowFunc()
	swipe, err := model.NewSwipe(swiperID, targetID, direction, now)
	if err != nil {
		return nil, err
	}

	stored, created, err := s.swipes.SaveIfNotExists(ctx, swipe)
	if err != nil {
		return nil, fmt.Errorf("error saving swipe: %w", err)
	}
	s.recorder.RecordSwipe(stored.Direction(), !created)
	if !created {
		log.WithField("swiper_id", swiperID.String()).
			WithField("target_id", targetID.String()).
			Debug("swipe already recorded, keeping the first one")
	}
	if !stored.IsLike() {
		return nil, nil
	}

	reciprocal, err := s.swipes.FindByPair(ctx, targetID, swiperID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding reciprocal swipe: %w", err)
	}
	if !reciprocal.IsLike() {
		return nil, nil
	}

	matchID := model.CanonicalMatchID(swiperID, targetID)
	existing, err := s.matches.FindByID(ctx, matchID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("error finding match [%s]: %w", matchID, err)
	}

	match, err := model.NewMatch(swiperID, targetID, now)
	if err != nil {
		return nil, err
	}
	persisted, created, err := s.matches.SaveIfNotExists(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("error saving match [%s]: %w", matchID, err)
	}
	if !created {
		return persisted, nil
	}

	s.recorder.RecordMatchCreated()
	log.WithField("match_id", matchID.String()).Info("match created")
	if err := s.publisher.Publish(ctx, model.NewMatchCreatedEvent(persisted, now)); err != nil {
		return nil, fmt.Errorf("error publishing match created event [%s]: %w", matchID, err)
	}
	return persisted, nil
}

// Discover loads the requester and finds prospects. Unset radius falls back
// to the requester max distance preference, then to the service default.
func (s *MatchingService) Discover(ctx context.Context, args model.DiscoverArgs) (*model.DiscoverResponse, error) {
	requester, err := s.users.FindByID(ctx, args.UserID)
	if err != nil {
		return nil, fmt.Errorf("error finding requester [%s]: %w", args.UserID, err)
	}

	radius := s.defaultRadius
	if pref := requester.Profile().Preferences().MaxDistance; pref != nil {
		radius = *pref
	}
	if args.RadiusKm != 0 {
		if radius, err = model.NewDistance(args.RadiusKm); err != nil {
			return nil, err
		}
	}
	limit := args.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}

	prospects, err := s.FindProspects(ctx, requester, radius, limit, args.ExcludedIDs)
	if err != nil {
		return nil, err
	}
	return &model.DiscoverResponse{Prospects: prospects}, nil
}

// Swipe checks that the swiper may swipe and that the target exists, then
// processes the swipe.
func (s *MatchingService) Swipe(ctx context.Context, args model.SwipeArgs) (*model.SwipeResponse, error) {
	swiper, err := s.users.FindByID(ctx, args.SwiperID)
	if err != nil {
		return nil, fmt.Errorf("error finding swiper [%s]: %w", args.SwiperID, err)
	}
	if !swiper.CanSwipe() {
		return nil, &model.StateError{From: swiper.State(), Op: "swipe as"}
	}
	target, err := s.users.FindByID(ctx, args.TargetID)
	if err != nil {
		return nil, fmt.Errorf("error finding swipe target [%s]: %w", args.TargetID, err)
	}

	match, err := s.ProcessSwipe(ctx, args.SwiperID, args.TargetID, args.Direction)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return &model.SwipeResponse{}, nil
	}
	return &model.SwipeResponse{Match: match, Partner: target}, nil
}

// ListMatches returns the matches of a user with the partner resolved,
// newest first. Matches whose partner no longer exists are skipped.
func (s *MatchingService) ListMatches(ctx context.Context, userID model.UserID) (*model.ListMatchesResponse, error) {
	matches, err := s.matches.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing matches of user [%s]: %w", userID, err)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt().After(matches[j].CreatedAt())
	})

	views := make([]model.MatchView, 0, len(matches))
	for _, m := range matches {
		partnerID, err := m.OtherUser(userID)
		if err != nil {
			return nil, err
		}
		partner, err := s.users.FindByID(ctx, partnerID)
		if errors.Is(err, model.ErrNotFound) {
			log.WithField("match_id", m.ID().String()).Warn("match partner not found, skipping")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error finding match partner [%s]: %w", partnerID, err)
		}
		views = append(views, model.MatchView{Match: m, Partner: partner})
	}
	return &model.ListMatchesResponse{Matches: views}, nil
}

// LikesReceived returns the users that liked userID and that userID has not swiped yet.
func (s *MatchingService) LikesReceived(ctx context.Context, userID model.UserID) ([]model.UserID, error) {
	likers, err := s.swipes.FindPendingLikersFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error finding likers of user [%s]: %w", userID, err)
	}
	swiped, err := s.swipes.FindSwipedUserIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error finding swiped users of [%s]: %w", userID, err)
	}
	answered := make(map[model.UserID]struct{}, len(swiped))
	for _, id := range swiped {
		answered[id] = struct{}{}
	}
	pending := make([]model.UserID, 0, len(likers))
	for _, id := range likers {
		if _, ok := answered[id]; !ok {
			pending = append(pending, id)
		}
	}
	return pending, nil
}

type noopRecorder struct{}

func (noopRecorder) RecordSwipe(model.SwipeDirection, bool) {}
func (noopRecorder) RecordMatchCreated()                    {}
func (noopRecorder) RecordProspectsServed(int)              {}
