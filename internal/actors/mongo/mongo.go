package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rbroggi/datingha/internal/core/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection   = "users"
	swipesCollection  = "swipes"
	matchesCollection = "matches"
)

// MongoDB is a mongo adapter for persistence. It hands out one repository per aggregate.
type MongoDB struct {
	users   *mongo.Collection
	swipes  *mongo.Collection
	matches *mongo.Collection
}

// MongoDBArgs are the mandatory arguments for the creation of a MongoDB
type MongoDBArgs struct {
	// Database holds the users, swipes and matches collections.
	Database *mongo.Database
}

// NewMongoDB creates a new MongoDB.
func NewMongoDB(args MongoDBArgs) (*MongoDB, error) {
	if args.Database == nil {
		return nil, errors.New("nil database passed to mongo adapter")
	}
	return &MongoDB{
		users:   args.Database.Collection(usersCollection),
		swipes:  args.Database.Collection(swipesCollection),
		matches: args.Database.Collection(matchesCollection),
	}, nil
}

// Connect opens a client on url and pings it.
func Connect(ctx context.Context, url string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on. It is idempotent.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	if _, err := m.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "username", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: 1}}},
	}); err != nil {
		return err
	}
	if _, err := m.swipes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "swiper_id", Value: 1}}},
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "direction", Value: 1}}},
	}); err != nil {
		return err
	}
	_, err := m.matches.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_low", Value: 1}}},
		{Keys: bson.D{{Key: "user_high", Value: 1}}},
	})
	return err
}

func (m *MongoDB) Users() *UserRepository {
	return &UserRepository{collection: m.users}
}

func (m *MongoDB) Swipes() *SwipeRepository {
	return &SwipeRepository{collection: m.swipes}
}

func (m *MongoDB) Matches() *MatchRepository {
	return &MatchRepository{collection: m.matches}
}

// SwipeRepository implements ports.SwipeRepository. The document id is the
// ordered pair so the primary key rejects a second swipe.
type SwipeRepository struct {
	collection *mongo.Collection
}

// SaveIfNotExists inserts the swipe. On a duplicate key the stored swipe is returned.
func (r *SwipeRepository) SaveIfNotExists(ctx context.Context, swipe *model.Swipe) (*model.Swipe, bool, error) {
	if swipe == nil {
		return nil, false, errors.New("nil swipe passed to save method")
	}
	_, err := r.collection.InsertOne(ctx, toSwipeDB(swipe))
	if err == nil {
		return swipe, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, err
	}
	existing, err := r.FindByPair(ctx, swipe.SwiperID(), swipe.TargetID())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *SwipeRepository) FindByPair(ctx context.Context, swiperID, targetID model.UserID) (*model.Swipe, error) {
	row := new(swipeDB)
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: swipeKey(swiperID, targetID)}}).Decode(row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *SwipeRepository) FindSwipedUserIDs(ctx context.Context, swiperID model.UserID) ([]model.UserID, error) {
	return r.findIDs(ctx, bson.D{{Key: "swiper_id", Value: swiperID.String()}}, func(s swipeDB) string { return s.TargetID })
}

func (r *SwipeRepository) FindPendingLikersFor(ctx context.Context, userID model.UserID) ([]model.UserID, error) {
	filter := bson.D{
		{Key: "target_id", Value: userID.String()},
		{Key: "direction", Value: bson.D{{Key: "$in", Value: bson.A{string(model.SwipeLike), string(model.SwipeSuperLike)}}}},
	}
	return r.findIDs(ctx, filter, func(s swipeDB) string { return s.SwiperID })
}

func (r *SwipeRepository) findIDs(ctx context.Context, filter bson.D, pick func(swipeDB) string) ([]model.UserID, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var rows []swipeDB
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]model.UserID, 0, len(rows))
	for _, row := range rows {
		id, err := model.ParseUserID(pick(row))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MatchRepository implements ports.MatchRepository keyed by canonical match id.
type MatchRepository struct {
	collection *mongo.Collection
}

// SaveIfNotExists inserts the match. On a duplicate key the stored match is returned.
func (r *MatchRepository) SaveIfNotExists(ctx context.Context, match *model.Match) (*model.Match, bool, error) {
	if match == nil {
		return nil, false, errors.New("nil match passed to save method")
	}
	_, err := r.collection.InsertOne(ctx, toMatchDB(match))
	if err == nil {
		return match, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, err
	}
	existing, err := r.FindByID(ctx, match.ID())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *MatchRepository) FindByID(ctx context.Context, id model.MatchID) (*model.Match, error) {
	row := new(matchDB)
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *MatchRepository) FindByUser(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "user_low", Value: userID.String()}},
		bson.D{{Key: "user_high", Value: userID.String()}},
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var rows []matchDB
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	matches := make([]*model.Match, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func swipeKey(swiperID, targetID model.UserID) string {
	return swiperID.String() + "_" + targetID.String()
}

type swipeDB struct {
	// Key is the ordered (swiper, target) pair.
	Key       string    `bson:"_id"`
	ID        string    `bson:"swipe_id"`
	SwiperID  string    `bson:"swiper_id"`
	TargetID  string    `bson:"target_id"`
	Direction string    `bson:"direction"`
	CreatedAt time.Time `bson:"created_at"`
}

func toSwipeDB(s *model.Swipe) *swipeDB {
	return &swipeDB{
		Key:       swipeKey(s.SwiperID(), s.TargetID()),
		ID:        s.ID().String(),
		SwiperID:  s.SwiperID().String(),
		TargetID:  s.TargetID().String(),
		Direction: string(s.Direction()),
		CreatedAt: s.CreatedAt(),
	}
}

func (s *swipeDB) toModel() (*model.Swipe, error) {
	id, err := model.ParseSwipeID(s.ID)
	if err != nil {
		return nil, err
	}
	swiper, err := model.ParseUserID(s.SwiperID)
	if err != nil {
		return nil, err
	}
	target, err := model.ParseUserID(s.TargetID)
	if err != nil {
		return nil, err
	}
	direction, err := model.ParseSwipeDirection(s.Direction)
	if err != nil {
		return nil, err
	}
	return model.RestoreSwipe(id, swiper, target, direction, s.CreatedAt.UTC()), nil
}

type matchDB struct {
	// ID is the canonical match id.
	ID        string    `bson:"_id"`
	UserLow   string    `bson:"user_low"`
	UserHigh  string    `bson:"user_high"`
	CreatedAt time.Time `bson:"created_at"`
}

func toMatchDB(m *model.Match) *matchDB {
	return &matchDB{
		ID:        m.ID().String(),
		UserLow:   m.UserLow().String(),
		UserHigh:  m.UserHigh().String(),
		CreatedAt: m.CreatedAt(),
	}
}

func (m *matchDB) toModel() (*model.Match, error) {
	low, err := model.ParseUserID(m.UserLow)
	if err != nil {
		return nil, err
	}
	high, err := model.ParseUserID(m.UserHigh)
	if err != nil {
		return nil, err
	}
	return model.RestoreMatch(model.MatchID(m.ID), low, high, m.CreatedAt.UTC()), nil
}
