package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/google/uuid"
	"github.com/rbroggi/datingha/internal/core/model"
)

// PostgresDB is a postgress adapter for persistance. It hands out one
// repository per aggregate, all sharing the same connection pool.
type PostgresDB struct {
	db *pg.DB
}

// PostgresDBArgs are the mandatory arguments for the creation of a PostgresDB
type PostgresDBArgs struct {
	// DB is a postgres database handle
	DB *pg.DB
}

// NewPostgresDB creates a new PostgresDB.
func NewPostgresDB(args PostgresDBArgs) (*PostgresDB, error) {
	if args.DB == nil {
		return nil, errors.New("nil postgres database handle")
	}
	return &PostgresDB{db: args.DB}, nil
}

// Connect parses url and opens a connection pool, failing when the database is unreachable.
func Connect(ctx context.Context, url string) (*pg.DB, error) {
	opts, err := pg.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing postgres url: %w", err)
	}
	db := pg.Connect(opts)
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error pinging postgres: %w", err)
	}
	return db, nil
}

// Users returns the user repository.
func (p *PostgresDB) Users() *UserRepository {
	return &UserRepository{db: p.db}
}

// Swipes returns the swipe repository.
func (p *PostgresDB) Swipes() *SwipeRepository {
	return &SwipeRepository{db: p.db}
}

// Matches returns the match repository.
func (p *PostgresDB) Matches() *MatchRepository {
	return &MatchRepository{db: p.db}
}

// SwipeRepository implements ports.SwipeRepository. The unique
// (swiper_id, target_id) constraint arbitrates concurrent inserts.
type SwipeRepository struct {
	db *pg.DB
}

// SaveIfNotExists inserts the swipe unless the pair already has one, in which case the stored swipe is returned.
func (r *SwipeRepository) SaveIfNotExists(ctx context.Context, swipe *model.Swipe) (*model.Swipe, bool, error) {
	if swipe == nil {
		return nil, false, errors.New("nil swipe passed to save method")
	}
	row := toSwipeDB(swipe)
	res, err := r.db.ModelContext(ctx, row).OnConflict("(swiper_id, target_id) DO NOTHING").Insert()
	if err != nil {
		return nil, false, err
	}
	if res.RowsAffected() > 0 {
		return swipe, true, nil
	}
	existing, err := r.FindByPair(ctx, swipe.SwiperID(), swipe.TargetID())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindByPair returns the swipe of swiper on target. It returns model.ErrNotFound if there is none.
func (r *SwipeRepository) FindByPair(ctx context.Context, swiperID, targetID model.UserID) (*model.Swipe, error) {
	row := new(swipeDB)
	err := r.db.ModelContext(ctx, row).
		Where("swiper_id = ?", uuid.UUID(swiperID)).
		Where("target_id = ?", uuid.UUID(targetID)).
		Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *SwipeRepository) FindSwipedUserIDs(ctx context.Context, swiperID model.UserID) ([]model.UserID, error) {
	var ids []uuid.UUID
	err := r.db.ModelContext(ctx, (*swipeDB)(nil)).
		Column("target_id").
		Where("swiper_id = ?", uuid.UUID(swiperID)).
		Order("created_at ASC").
		Select(&ids)
	if err != nil && !errors.Is(err, pg.ErrNoRows) {
		return nil, err
	}
	return toUserIDs(ids), nil
}

func (r *SwipeRepository) FindPendingLikersFor(ctx context.Context, userID model.UserID) ([]model.UserID, error) {
	var ids []uuid.UUID
	err := r.db.ModelContext(ctx, (*swipeDB)(nil)).
		Column("swiper_id").
		Where("target_id = ?", uuid.UUID(userID)).
		WhereIn("direction IN (?)", []string{string(model.SwipeLike), string(model.SwipeSuperLike)}).
		Order("created_at ASC").
		Select(&ids)
	if err != nil && !errors.Is(err, pg.ErrNoRows) {
		return nil, err
	}
	return toUserIDs(ids), nil
}

// MatchRepository implements ports.MatchRepository keyed by canonical match id.
type MatchRepository struct {
	db *pg.DB
}

// SaveIfNotExists inserts the match unless one with the same id exists, in which case the stored match is returned.
func (r *MatchRepository) SaveIfNotExists(ctx context.Context, match *model.Match) (*model.Match, bool, error) {
	if match == nil {
		return nil, false, errors.New("nil match passed to save method")
	}
	row := toMatchDB(match)
	res, err := r.db.ModelContext(ctx, row).OnConflict("(id) DO NOTHING").Insert()
	if err != nil {
		return nil, false, err
	}
	if res.RowsAffected() > 0 {
		return match, true, nil
	}
	existing, err := r.FindByID(ctx, match.ID())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindByID returns the match. It returns model.ErrNotFound if there is none.
func (r *MatchRepository) FindByID(ctx context.Context, id model.MatchID) (*model.Match, error) {
	row := &matchDB{ID: string(id)}
	err := r.db.ModelContext(ctx, row).WherePK().Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *MatchRepository) FindByUser(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	var rows []matchDB
	err := r.db.ModelContext(ctx, &rows).
		WhereOr("user_low = ?", uuid.UUID(userID)).
		WhereOr("user_high = ?", uuid.UUID(userID)).
		Order("created_at DESC").
		Select()
	if err != nil && !errors.Is(err, pg.ErrNoRows) {
		return nil, err
	}
	matches := make([]*model.Match, len(rows))
	for i := range rows {
		matches[i] = rows[i].toModel()
	}
	return matches, nil
}

func toUserIDs(ids []uuid.UUID) []model.UserID {
	out := make([]model.UserID, len(ids))
	for i, id := range ids {
		out[i] = model.UserID(id)
	}
	return out
}

type swipeDB struct {
	tableName struct{} `pg:"datingha.swipes"`

	// ID unique identifier of the swipe.
	ID uuid.UUID `pg:"id,type:uuid"`

	// SwiperID is the user who swiped.
	SwiperID uuid.UUID `pg:"swiper_id,type:uuid"`

	// TargetID is the user swiped on.
	TargetID uuid.UUID `pg:"target_id,type:uuid"`

	// Direction is LIKE, DISLIKE or SUPER_LIKE.
	Direction string `pg:"direction"`

	// CreatedAt is the time at which the swipe happened.
	CreatedAt time.Time `pg:"created_at"`
}

func toSwipeDB(s *model.Swipe) *swipeDB {
	return &swipeDB{
		ID:        uuid.UUID(s.ID()),
		SwiperID:  uuid.UUID(s.SwiperID()),
		TargetID:  uuid.UUID(s.TargetID()),
		Direction: string(s.Direction()),
		CreatedAt: s.CreatedAt(),
	}
}

func (s *swipeDB) toModel() *model.Swipe {
	return model.RestoreSwipe(model.SwipeID(s.ID), model.UserID(s.SwiperID), model.UserID(s.TargetID), model.SwipeDirection(s.Direction), s.CreatedAt.UTC())
}

type matchDB struct {
	tableName struct{} `pg:"datingha.matches"`

	// ID is the canonical match id.
	ID string `pg:"id,pk"`

	// UserLow is the participant whose id sorts first.
	UserLow uuid.UUID `pg:"user_low,type:uuid"`

	// UserHigh is the participant whose id sorts last.
	UserHigh uuid.UUID `pg:"user_high,type:uuid"`

	// CreatedAt is the time at which the match was created.
	CreatedAt time.Time `pg:"created_at"`
}

func toMatchDB(m *model.Match) *matchDB {
	return &matchDB{
		ID:        string(m.ID()),
		UserLow:   uuid.UUID(m.UserLow()),
		UserHigh:  uuid.UUID(m.UserHigh()),
		CreatedAt: m.CreatedAt(),
	}
}

func (m *matchDB) toModel() *model.Match {
	return model.RestoreMatch(model.MatchID(m.ID), model.UserID(m.UserLow), model.UserID(m.UserHigh), m.CreatedAt.UTC())
}
