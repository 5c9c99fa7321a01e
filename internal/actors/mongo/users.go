package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbroggi/datingha/internal/core/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	earthRadiusKm = 6371.0

	// mongoEarthRadiusMeters is the sphere radius MongoDB uses to turn
	// $maxDistance meters into an angle.
	mongoEarthRadiusMeters = 6378100.0

	// radiusSlackKm widens the geo filter so a candidate sitting exactly on the
	// radius is never dropped. The exact check happens in Go.
	radiusSlackKm = 0.001
)

// UserRepository implements ports.UserRepository. Locations are stored as
// GeoJSON points so radius queries can use the 2dsphere index.
type UserRepository struct {
	collection *mongo.Collection
}

// FindByID returns the user. It returns model.ErrNotFound if there is none.
func (r *UserRepository) FindByID(ctx context.Context, id model.UserID) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

// FindByUsername returns the user. It returns model.ErrNotFound if there is none.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*model.User, error) {
	row := new(userDB)
	err := r.collection.FindOne(ctx, filter).Decode(row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// Save will insert or fully replace the user.
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("nil user passed to save method")
	}
	row := toUserDB(user)
	_, err := r.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: row.ID}}, row, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: username %q already taken", model.ErrValidation, user.Username())
	}
	return err
}

// FindDiscoverableInRadius returns discoverable users within radius of center,
// nearest first. $nearSphere sorts by distance itself.
func (r *UserRepository) FindDiscoverableInRadius(ctx context.Context, center model.Location, radius model.Distance, limit int) ([]*model.User, error) {
	states := bson.A{}
	for _, s := range model.DiscoverableStates() {
		states = append(states, string(s))
	}
	filter := bson.D{
		{Key: "state", Value: bson.D{{Key: "$in", Value: states}}},
		{Key: "location", Value: bson.D{{Key: "$nearSphere", Value: bson.D{
			{Key: "$geometry", Value: newGeoPoint(center)},
			{Key: "$maxDistance", Value: (radius.Km() + radiusSlackKm) / earthRadiusKm * mongoEarthRadiusMeters},
		}}}},
	}
	opts := options.Find().SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var rows []userDB
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(rows))
	for i := range rows {
		u, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		if loc, ok := u.Location(); ok && center.DistanceTo(loc).Within(radius) {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *UserRepository) ExistsByID(ctx context.Context, id model.UserID) (bool, error) {
	return r.exists(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *UserRepository) exists(ctx context.Context, filter bson.D) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// geoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type geoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

func newGeoPoint(loc model.Location) *geoPoint {
	return &geoPoint{Type: "Point", Coordinates: []float64{loc.Longitude(), loc.Latitude()}}
}

type userDB struct {
	// ID unique identifier of the user.
	ID string `bson:"_id"`

	// Username is the login name. Omitted when empty so the unique index ignores it.
	Username string `bson:"username,omitempty"`

	// PasswordHash contains the password hash.
	PasswordHash string `bson:"password_hash"`

	DisplayName string    `bson:"display_name"`
	Bio         string    `bson:"bio"`
	BirthDate   time.Time `bson:"birth_date,omitempty"`
	Interests   []string  `bson:"interests"`
	PhotoURLs   []string  `bson:"photo_urls"`
	Location    *geoPoint `bson:"location,omitempty"`

	InterestedIn  []string `bson:"interested_in"`
	AgeMin        *int     `bson:"age_min,omitempty"`
	AgeMax        *int     `bson:"age_max,omitempty"`
	MaxDistanceKm *float64 `bson:"max_distance_km,omitempty"`

	// State is the lifecycle state.
	State     string `bson:"state"`
	BanReason string `bson:"ban_reason,omitempty"`

	// CreatedAt is the time at which the user was created in the system.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedAt is the time at which the user was last updated
	UpdatedAt time.Time `bson:"updated_at"`
}

func toUserDB(u *model.User) *userDB {
	rec := u.Record()
	p := rec.Profile
	row := &userDB{
		ID:           rec.ID.String(),
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		DisplayName:  p.DisplayName(),
		Bio:          p.Bio(),
		BirthDate:    p.BirthDate(),
		PhotoURLs:    p.PhotoURLs(),
		InterestedIn: p.Preferences().InterestedIn,
		State:        string(rec.State),
		BanReason:    rec.BanReason,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
	for _, i := range p.Interests() {
		row.Interests = append(row.Interests, string(i))
	}
	if loc, ok := p.Location(); ok {
		row.Location = newGeoPoint(loc)
	}
	if ar := p.Preferences().AgeRange; ar != nil {
		min, max := ar.Min(), ar.Max()
		row.AgeMin, row.AgeMax = &min, &max
	}
	if md := p.Preferences().MaxDistance; md != nil {
		km := md.Km()
		row.MaxDistanceKm = &km
	}
	return row
}

func (row *userDB) toModel() (*model.User, error) {
	id, err := model.ParseUserID(row.ID)
	if err != nil {
		return nil, err
	}
	args := model.ProfileArgs{
		DisplayName: row.DisplayName,
		Bio:         row.Bio,
		PhotoURLs:   row.PhotoURLs,
		Preferences: model.Preferences{InterestedIn: row.InterestedIn},
	}
	if !row.BirthDate.IsZero() {
		args.BirthDate = row.BirthDate.UTC()
	}
	for _, i := range row.Interests {
		args.Interests = append(args.Interests, model.Interest(i))
	}
	if row.Location != nil {
		if len(row.Location.Coordinates) != 2 {
			return nil, errors.New("malformed location stored for user " + row.ID)
		}
		loc, err := model.NewLocation(row.Location.Coordinates[1], row.Location.Coordinates[0])
		if err != nil {
			return nil, err
		}
		args.Location = &loc
	}
	if row.AgeMin != nil && row.AgeMax != nil {
		ar, err := model.NewAgeRange(*row.AgeMin, *row.AgeMax)
		if err != nil {
			return nil, err
		}
		args.Preferences.AgeRange = &ar
	}
	if row.MaxDistanceKm != nil {
		d, err := model.NewDistance(*row.MaxDistanceKm)
		if err != nil {
			return nil, err
		}
		args.Preferences.MaxDistance = &d
	}
	profile, err := model.NewProfile(args)
	if err != nil {
		return nil, err
	}
	state, err := model.ParseUserState(row.State)
	if err != nil {
		return nil, err
	}
	return model.RestoreUser(model.UserRecord{
		ID:           id,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Profile:      profile,
		State:        state,
		BanReason:    row.BanReason,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}), nil
}
