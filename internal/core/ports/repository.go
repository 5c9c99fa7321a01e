package ports

import (
	"context"

	"github.com/rbroggi/datingha/internal/core/model"
)

// UserRepository is the persistence port for users.
type UserRepository interface {
	// FindByID returns the user or model.ErrNotFound.
	FindByID(ctx context.Context, id model.UserID) (*model.User, error)

	// FindByUsername returns the user or model.ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Save durably creates or replaces the user.
	Save(ctx context.Context, user *model.User) error

	// FindDiscoverableInRadius returns at most limit discoverable users with a
	// location whose distance to center is lower or equal to radius.
	FindDiscoverableInRadius(ctx context.Context, center model.Location, radius model.Distance, limit int) ([]*model.User, error)

	// ExistsByID reports whether a user with the id exists.
	ExistsByID(ctx context.Context, id model.UserID) (bool, error)

	// ExistsByUsername reports whether the username is taken.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// SwipeRepository is the persistence port for swipes. At most one swipe is
// stored per ordered (swiper, target) pair.
type SwipeRepository interface {
	// SaveIfNotExists stores the swipe unless one already exists for the
	// same pair. It returns the stored swipe and whether this call created it.
	// A duplicate is not an error.
	SaveIfNotExists(ctx context.Context, swipe *model.Swipe) (*model.Swipe, bool, error)

	// FindByPair returns the swipe of swiper on target or model.ErrNotFound.
	FindByPair(ctx context.Context, swiperID, targetID model.UserID) (*model.Swipe, error)

	// FindSwipedUserIDs returns every target the user swiped on.
	FindSwipedUserIDs(ctx context.Context, swiperID model.UserID) ([]model.UserID, error)

	// FindPendingLikersFor returns every user that liked or super-liked userID.
	FindPendingLikersFor(ctx context.Context, userID model.UserID) ([]model.UserID, error)
}

// MatchRepository is the persistence port for matches. At most one match is
// stored per canonical id.
type MatchRepository interface {
	// SaveIfNotExists stores the match unless one already exists with the
	// same id. It returns the stored match and whether this call created it.
	SaveIfNotExists(ctx context.Context, match *model.Match) (*model.Match, bool, error)

	// FindByID returns the match or model.ErrNotFound.
	FindByID(ctx context.Context, id model.MatchID) (*model.Match, error)

	// FindByUser returns every match the user takes part in.
	FindByUser(ctx context.Context, userID model.UserID) ([]*model.Match, error)
}
