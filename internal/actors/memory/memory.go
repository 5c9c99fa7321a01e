// Package memory provides in-process adapters for the persistence and
// publishing ports. They are safe for concurrent use.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/rbroggi/datingha/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// UserStore is an in-memory ports.UserRepository.
type UserStore struct {
	mu    sync.RWMutex
	users map[model.UserID]model.UserRecord
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[model.UserID]model.UserRecord)}
}

// FindByID returns a copy of the stored user.
func (s *UserStore) FindByID(_ context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return model.RestoreUser(rec), nil
}

// FindByUsername returns a copy of the user owning the username.
func (s *UserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.users {
		if rec.Username == username && username != "" {
			return model.RestoreUser(rec), nil
		}
	}
	return nil, model.ErrNotFound
}

// Save stores a snapshot of the user. A non-empty username owned by another
// user is rejected with model.ErrValidation.
func (s *UserStore) Save(_ context.Context, user *model.User) error {
	if user == nil {
		return errors.New("nil user passed to save method")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := user.Record()
	if rec.Username != "" {
		for id, other := range s.users {
			if id != rec.ID && other.Username == rec.Username {
				return fmt.Errorf("%w: username %q already taken", model.ErrValidation, rec.Username)
			}
		}
	}
	s.users[rec.ID] = rec
	return nil
}

type candidate struct {
	rec      model.UserRecord
	distance float64
}

// FindDiscoverableInRadius scans every user. Results are ordered nearest
// first, then by creation time, then by id.
func (s *UserStore) FindDiscoverableInRadius(_ context.Context, center model.Location, radius model.Distance, limit int) ([]*model.User, error) {
	s.mu.RLock()
	found := make([]candidate, 0)
	for _, rec := range s.users {
		if !rec.State.CanBeDiscovered() {
			continue
		}
		loc, ok := rec.Profile.Location()
		if !ok {
			continue
		}
		dist := center.DistanceTo(loc)
		if !dist.Within(radius) {
			continue
		}
		found = append(found, candidate{rec: rec, distance: dist.Km()})
	}
	s.mu.RUnlock()

	sort.Slice(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		if !found[i].rec.CreatedAt.Equal(found[j].rec.CreatedAt) {
			return found[i].rec.CreatedAt.Before(found[j].rec.CreatedAt)
		}
		return found[i].rec.ID.String() < found[j].rec.ID.String()
	})
	if limit >= 0 && len(found) > limit {
		found = found[:limit]
	}
	users := make([]*model.User, len(found))
	for i, c := range found {
		users[i] = model.RestoreUser(c.rec)
	}
	return users, nil
}

func (s *UserStore) ExistsByID(_ context.Context, id model.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

type pairKey struct {
	swiper model.UserID
	target model.UserID
}

// SwipeStore is an in-memory ports.SwipeRepository keyed by the ordered (swiper, target) pair.
type SwipeStore struct {
	swipes sync.Map // pairKey -> *model.Swipe
}

// NewSwipeStore creates an empty SwipeStore.
func NewSwipeStore() *SwipeStore {
	return &SwipeStore{}
}

// SaveIfNotExists stores the swipe atomically. The first swipe on a pair wins.
func (s *SwipeStore) SaveIfNotExists(_ context.Context, swipe *model.Swipe) (*model.Swipe, bool, error) {
	if swipe == nil {
		return nil, false, errors.New("nil swipe passed to save method")
	}
	key := pairKey{swiper: swipe.SwiperID(), target: swipe.TargetID()}
	actual, loaded := s.swipes.LoadOrStore(key, swipe)
	return actual.(*model.Swipe), !loaded, nil
}

func (s *SwipeStore) FindByPair(_ context.Context, swiperID, targetID model.UserID) (*model.Swipe, error) {
	v, ok := s.swipes.Load(pairKey{swiper: swiperID, target: targetID})
	if !ok {
		return nil, model.ErrNotFound
	}
	return v.(*model.Swipe), nil
}

func (s *SwipeStore) FindSwipedUserIDs(_ context.Context, swiperID model.UserID) ([]model.UserID, error) {
	var ids []model.UserID
	s.swipes.Range(func(k, _ any) bool {
		if key := k.(pairKey); key.swiper == swiperID {
			ids = append(ids, key.target)
		}
		return true
	})
	return ids, nil
}

func (s *SwipeStore) FindPendingLikersFor(_ context.Context, userID model.UserID) ([]model.UserID, error) {
	var ids []model.UserID
	s.swipes.Range(func(k, v any) bool {
		if key := k.(pairKey); key.target == userID && v.(*model.Swipe).IsLike() {
			ids = append(ids, key.swiper)
		}
		return true
	})
	return ids, nil
}

// Len returns the number of stored swipes.
func (s *SwipeStore) Len() int {
	n := 0
	s.swipes.Range(func(_, _ any) bool { n++; return true })
	return n
}

// MatchStore is an in-memory ports.MatchRepository keyed by canonical match id.
type MatchStore struct {
	matches sync.Map // model.MatchID -> *model.Match
}

// NewMatchStore creates an empty MatchStore.
func NewMatchStore() *MatchStore {
	return &MatchStore{}
}

// SaveIfNotExists stores the match atomically. The stored copy is never
// marked as newly created.
func (s *MatchStore) SaveIfNotExists(_ context.Context, match *model.Match) (*model.Match, bool, error) {
	if match == nil {
		return nil, false, errors.New("nil match passed to save method")
	}
	stored := model.RestoreMatch(match.ID(), match.UserLow(), match.UserHigh(), match.CreatedAt())
	actual, loaded := s.matches.LoadOrStore(match.ID(), stored)
	if loaded {
		return actual.(*model.Match), false, nil
	}
	return match, true, nil
}

func (s *MatchStore) FindByID(_ context.Context, id model.MatchID) (*model.Match, error) {
	v, ok := s.matches.Load(id)
	if !ok {
		return nil, model.ErrNotFound
	}
	return v.(*model.Match), nil
}

func (s *MatchStore) FindByUser(_ context.Context, userID model.UserID) ([]*model.Match, error) {
	var matches []*model.Match
	s.matches.Range(func(_, v any) bool {
		if m := v.(*model.Match); m.Involves(userID) {
			matches = append(matches, m)
		}
		return true
	})
	return matches, nil
}

// Len returns the number of stored matches.
func (s *MatchStore) Len() int {
	n := 0
	s.matches.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Publisher is an in-process ports.EventPublisher. It records every event
// and forwards it synchronously to the registered handlers.
type Publisher struct {
	mu       sync.Mutex
	events   []model.Event
	handlers []ports.EventHandler
}

// NewPublisher creates a Publisher forwarding to handlers.
func NewPublisher(handlers ...ports.EventHandler) *Publisher {
	return &Publisher{handlers: append([]ports.EventHandler(nil), handlers...)}
}

// Subscribe registers an additional handler.
func (p *Publisher) Subscribe(handler ports.EventHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
}

// Publish records the event and runs the handlers. Handler failures are
// logged, the event stays published.
func (p *Publisher) Publish(ctx context.Context, event model.Event) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	handlers := append([]ports.EventHandler(nil), p.handlers...)
	p.mu.Unlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			log.WithError(err).WithField("event_type", string(event.Type())).Error("error in event handler")
		}
	}
	return nil
}

// Events returns a copy of the published events in order.
func (p *Publisher) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Event(nil), p.events...)
}

// Outbox is an in-process ports.Sender. It logs and keeps every notification.
type Outbox struct {
	mu   sync.Mutex
	sent []model.MatchNotification
}

// NewOutbox creates an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Send(_ context.Context, n model.MatchNotification) error {
	log.WithField("recipient_id", n.RecipientID.String()).
		WithField("match_id", n.MatchID.String()).
		Info("match notification")
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, n)
	return nil
}

// Sent returns a copy of the delivered notifications in order.
func (o *Outbox) Sent() []model.MatchNotification {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]model.MatchNotification(nil), o.sent...)
}
