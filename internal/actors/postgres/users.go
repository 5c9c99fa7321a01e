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

// haversineKm computes the distance in km between the row location and (?0, ?1).
const haversineKm = `(2 * 6371 * asin(least(1, sqrt(
	power(sin(radians(latitude - ?0) / 2), 2) +
	cos(radians(?0)) * cos(radians(latitude)) * power(sin(radians(longitude - ?1) / 2), 2)))))`

const (
	uniqueViolationCode = "23505"
	usernameConstraint  = "users_username_key"
)

// radiusSlackKm widens the SQL filter so floating point differences never drop a
// candidate sitting exactly on the radius. The exact check happens in Go.
const radiusSlackKm = 0.001

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	db *pg.DB
}

// FindByID returns the user. It returns model.ErrNotFound if there is none.
func (r *UserRepository) FindByID(ctx context.Context, id model.UserID) (*model.User, error) {
	row := &userDB{ID: uuid.UUID(id)}
	err := r.db.ModelContext(ctx, row).WherePK().Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// FindByUsername returns the user. It returns model.ErrNotFound if there is none.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	row := new(userDB)
	err := r.db.ModelContext(ctx, row).Where("username = ?", username).Select()
	if errors.Is(err, pg.ErrNoRows) {
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
	_, err := r.db.ModelContext(ctx, toUserDB(user)).OnConflict("(id) DO UPDATE").Insert()
	if isUniqueViolation(err, usernameConstraint) {
		return fmt.Errorf("%w: username %q already taken", model.ErrValidation, user.Username())
	}
	return err
}

// isUniqueViolation reports whether err is a postgres unique_violation (23505) on constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr pg.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Field('C') == uniqueViolationCode && pgErr.Field('n') == constraint
}

// FindDiscoverableInRadius returns discoverable users within radius of center,
// nearest first, then oldest accounts first.
func (r *UserRepository) FindDiscoverableInRadius(ctx context.Context, center model.Location, radius model.Distance, limit int) ([]*model.User, error) {
	states := make([]string, 0)
	for _, s := range model.DiscoverableStates() {
		states = append(states, string(s))
	}

	var rows []userDB
	err := r.db.ModelContext(ctx, &rows).
		WhereIn("state IN (?)", states).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where(haversineKm+" <= ?2", center.Latitude(), center.Longitude(), radius.Km()+radiusSlackKm).
		OrderExpr(haversineKm+" ASC", center.Latitude(), center.Longitude()).
		Order("created_at ASC", "id ASC").
		Limit(limit).
		Select()
	if err != nil && !errors.Is(err, pg.ErrNoRows) {
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
	return r.db.ModelContext(ctx, (*userDB)(nil)).Where("id = ?", uuid.UUID(id)).Exists()
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.db.ModelContext(ctx, (*userDB)(nil)).Where("username = ?", username).Exists()
}

type userDB struct {
	tableName struct{} `pg:"datingha.users"`

	// ID unique identifier of the user.
	ID uuid.UUID `pg:"id,pk,type:uuid"`

	// Username is the login name. Empty usernames are stored as NULL.
	Username string `pg:"username"`

	// PasswordHash contains the password hash.
	PasswordHash string `pg:"password_hash"`

	DisplayName string    `pg:"display_name"`
	Bio         string    `pg:"bio"`
	BirthDate   time.Time `pg:"birth_date,type:date"`
	Interests   []string  `pg:"interests,array"`
	PhotoURLs   []string  `pg:"photo_urls,array"`

	// Latitude and Longitude are both NULL when the user has no location.
	Latitude  *float64 `pg:"latitude"`
	Longitude *float64 `pg:"longitude"`

	InterestedIn  []string `pg:"interested_in,array"`
	AgeMin        *int     `pg:"age_min"`
	AgeMax        *int     `pg:"age_max"`
	MaxDistanceKm *float64 `pg:"max_distance_km"`

	// State is the lifecycle state.
	State     string `pg:"state"`
	BanReason string `pg:"ban_reason"`

	// CreatedAt is the time at which the user was created in the system.
	CreatedAt time.Time `pg:"created_at"`

	// UpdatedAt is the time at which the user was last updated
	UpdatedAt time.Time `pg:"updated_at"`
}

func toUserDB(u *model.User) *userDB {
	rec := u.Record()
	p := rec.Profile
	row := &userDB{
		ID:           uuid.UUID(rec.ID),
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
		lat, lon := loc.Latitude(), loc.Longitude()
		row.Latitude, row.Longitude = &lat, &lon
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
	args := model.ProfileArgs{
		DisplayName: row.DisplayName,
		Bio:         row.Bio,
		PhotoURLs:   row.PhotoURLs,
		Preferences: model.Preferences{InterestedIn: row.InterestedIn},
	}
	if !row.BirthDate.IsZero() {
		y, m, d := row.BirthDate.Date()
		args.BirthDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	for _, i := range row.Interests {
		args.Interests = append(args.Interests, model.Interest(i))
	}
	if row.Latitude != nil && row.Longitude != nil {
		loc, err := model.NewLocation(*row.Latitude, *row.Longitude)
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
		ID:           model.UserID(row.ID),
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Profile:      profile,
		State:        state,
		BanReason:    row.BanReason,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}), nil
}
