package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbroggi/datingha/internal/core/model"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "datingha:"

// saveSwipeScript stores the swipe hash only if the pair has none and
// maintains the swiped and likers index sets in the same step.
//
// KEYS: swipe hash, swiped set of swiper, likers set of target.
// ARGV: id, swiper, target, direction, created_at, is_like.
var saveSwipeScript = goredis.NewScript(`
if redis.call('HSETNX', KEYS[1], 'id', ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'swiper_id', ARGV[2], 'target_id', ARGV[3], 'direction', ARGV[4], 'created_at', ARGV[5])
redis.call('SADD', KEYS[2], ARGV[3])
if ARGV[6] == '1' then
	redis.call('SADD', KEYS[3], ARGV[2])
end
return 1
`)

// saveMatchScript stores the match hash only if the id is free and indexes it
// under both users.
//
// KEYS: match hash, matches set of low, matches set of high.
// ARGV: id, low, high, created_at.
var saveMatchScript = goredis.NewScript(`
if redis.call('HSETNX', KEYS[1], 'id', ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'user_low', ARGV[2], 'user_high', ARGV[3], 'created_at', ARGV[4])
redis.call('SADD', KEYS[2], ARGV[1])
redis.call('SADD', KEYS[3], ARGV[1])
return 1
`)

// ClientArgs configure the connection.
type ClientArgs struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a new Redis client and pings it.
func NewClient(ctx context.Context, args ClientArgs) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         args.Addr,
		Password:     args.Password,
		DB:           args.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// SwipeRepository implements ports.SwipeRepository on Redis hashes and sets.
type SwipeRepository struct {
	client goredis.UniversalClient
}

// NewSwipeRepository creates a SwipeRepository.
func NewSwipeRepository(client goredis.UniversalClient) *SwipeRepository {
	return &SwipeRepository{client: client}
}

// SaveIfNotExists stores the swipe atomically. The first swipe on a pair wins.
func (r *SwipeRepository) SaveIfNotExists(ctx context.Context, swipe *model.Swipe) (*model.Swipe, bool, error) {
	if swipe == nil {
		return nil, false, errors.New("nil swipe passed to save method")
	}
	isLike := "0"
	if swipe.IsLike() {
		isLike = "1"
	}
	keys := []string{
		swipeKey(swipe.SwiperID(), swipe.TargetID()),
		swipedKey(swipe.SwiperID()),
		likersKey(swipe.TargetID()),
	}
	created, err := saveSwipeScript.Run(ctx, r.client, keys,
		swipe.ID().String(),
		swipe.SwiperID().String(),
		swipe.TargetID().String(),
		string(swipe.Direction()),
		swipe.CreatedAt().Format(time.RFC3339Nano),
		isLike,
	).Int()
	if err != nil {
		return nil, false, err
	}
	if created == 1 {
		return swipe, true, nil
	}
	existing, err := r.FindByPair(ctx, swipe.SwiperID(), swipe.TargetID())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *SwipeRepository) FindByPair(ctx context.Context, swiperID, targetID model.UserID) (*model.Swipe, error) {
	fields, err := r.client.HGetAll(ctx, swipeKey(swiperID, targetID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrNotFound
	}
	return swipeFromHash(fields)
}

func (r *SwipeRepository) FindSwipedUserIDs(ctx context.Context, swiperID model.UserID) ([]model.UserID, error) {
	return members(ctx, r.client, swipedKey(swiperID))
}

func (r *SwipeRepository) FindPendingLikersFor(ctx context.Context, userID model.UserID) ([]model.UserID, error) {
	return members(ctx, r.client, likersKey(userID))
}

// MatchRepository implements ports.MatchRepository on Redis hashes keyed by canonical match id.
type MatchRepository struct {
	client goredis.UniversalClient
}

// NewMatchRepository creates a MatchRepository.
func NewMatchRepository(client goredis.UniversalClient) *MatchRepository {
	return &MatchRepository{client: client}
}

// SaveIfNotExists stores the match atomically. The stored copy is never
// marked as newly created.
func (r *MatchRepository) SaveIfNotExists(ctx context.Context, match *model.Match) (*model.Match, bool, error) {
	if match == nil {
		return nil, false, errors.New("nil match passed to save method")
	}
	keys := []string{matchKey(match.ID()), userMatchesKey(match.UserLow()), userMatchesKey(match.UserHigh())}
	created, err := saveMatchScript.Run(ctx, r.client, keys,
		match.ID().String(),
		match.UserLow().String(),
		match.UserHigh().String(),
		match.CreatedAt().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return nil, false, err
	}
	if created == 1 {
		return match, true, nil
	}
	existing, err := r.FindByID(ctx, match.ID())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *MatchRepository) FindByID(ctx context.Context, id model.MatchID) (*model.Match, error) {
	fields, err := r.client.HGetAll(ctx, matchKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrNotFound
	}
	return matchFromHash(fields)
}

func (r *MatchRepository) FindByUser(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	ids, err := r.client.SMembers(ctx, userMatchesKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	cmds := make([]*goredis.MapStringStringCmd, len(ids))
	if _, err := r.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, matchKey(model.MatchID(id)))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	matches := make([]*model.Match, 0, len(cmds))
	for _, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			continue
		}
		m, err := matchFromHash(cmd.Val())
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func members(ctx context.Context, client goredis.UniversalClient, key string) ([]model.UserID, error) {
	raw, err := client.SMembers(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ids := make([]model.UserID, 0, len(raw))
	for _, s := range raw {
		id, err := model.ParseUserID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func swipeKey(swiperID, targetID model.UserID) string {
	return keyPrefix + "swipe:" + swiperID.String() + ":" + targetID.String()
}

func swipedKey(swiperID model.UserID) string {
	return keyPrefix + "swiped:" + swiperID.String()
}

func likersKey(targetID model.UserID) string {
	return keyPrefix + "likers:" + targetID.String()
}

func matchKey(id model.MatchID) string {
	return keyPrefix + "match:" + id.String()
}

func userMatchesKey(userID model.UserID) string {
	return keyPrefix + "matches:" + userID.String()
}

func swipeFromHash(fields map[string]string) (*model.Swipe, error) {
	id, err := model.ParseSwipeID(fields["id"])
	if err != nil {
		return nil, err
	}
	swiper, err := model.ParseUserID(fields["swiper_id"])
	if err != nil {
		return nil, err
	}
	target, err := model.ParseUserID(fields["target_id"])
	if err != nil {
		return nil, err
	}
	direction, err := model.ParseSwipeDirection(fields["direction"])
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("error parsing swipe creation time: %w", err)
	}
	return model.RestoreSwipe(id, swiper, target, direction, createdAt.UTC()), nil
}

func matchFromHash(fields map[string]string) (*model.Match, error) {
	low, err := model.ParseUserID(fields["user_low"])
	if err != nil {
		return nil, err
	}
	high, err := model.ParseUserID(fields["user_high"])
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("error parsing match creation time: %w", err)
	}
	return model.RestoreMatch(model.MatchID(fields["id"]), low, high, createdAt.UTC()), nil
}
