package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rbroggi/datingha/internal/actors/memory"
	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHashParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newUserService(t *testing.T) (*UserService, *memory.UserStore) {
	t.Helper()
	store := memory.NewUserStore()
	return NewUserService(
		UserServiceArgs{Repository: store},
		WithUserNowFunc(func() time.Time { return dummyTime }),
		WithHashParams(testHashParams),
	), store
}

func completeProfile() model.ProfileArgs {
	loc := model.MustLocation(40.7128, -74.0060)
	return model.ProfileArgs{
		DisplayName: "Alice",
		BirthDate:   time.Date(1995, time.March, 3, 0, 0, 0, 0, time.UTC),
		Location:    &loc,
		PhotoURLs:   []string{"https://img/alice.jpg"},
	}
}

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name        string
		args        model.RegisterUserArgs
		expectedErr error
		wantState   model.UserState
	}{
		{
			name:      "complete profile is active",
			args:      model.RegisterUserArgs{Username: "alice", Password: "s3cretpass", Profile: completeProfile()},
			wantState: model.StateActive,
		},
		{
			name:      "partial profile is incomplete",
			args:      model.RegisterUserArgs{Username: "bob", Password: "s3cretpass", Profile: model.ProfileArgs{DisplayName: "Bob"}},
			wantState: model.StateProfileIncomplete,
		},
		{
			name:        "blank username",
			args:        model.RegisterUserArgs{Username: "  ", Password: "s3cretpass"},
			expectedErr: model.ErrValidation,
		},
		{
			name:        "short password",
			args:        model.RegisterUserArgs{Username: "carol", Password: "short"},
			expectedErr: model.ErrValidation,
		},
		{
			name:        "too many photos",
			args:        model.RegisterUserArgs{Username: "dave", Password: "s3cretpass", Profile: model.ProfileArgs{PhotoURLs: []string{"a", "b", "c"}}},
			expectedErr: model.ErrValidation,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			service, store := newUserService(t)
			res, err := service.Register(context.Background(), test.args)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.wantState, res.User.State())
			assert.Equal(t, dummyTime, res.User.CreatedAt())
			assert.NotEqual(t, test.args.Password, res.User.PasswordHash())

			stored, err := store.FindByID(context.Background(), res.User.ID())
			require.NoError(t, err)
			assert.Equal(t, res.User.Record(), stored.Record())
		})
	}
}

func TestUserService_RegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	service, _ := newUserService(t)
	_, err := service.Register(ctx, model.RegisterUserArgs{Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)
	_, err = service.Register(ctx, model.RegisterUserArgs{Username: "alice", Password: "an0therpass"})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestUserService_RegisterConcurrentSameUsername(t *testing.T) {
	ctx := context.Background()
	service, _ := newUserService(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Register(ctx, model.RegisterUserArgs{Username: "alice", Password: "s3cretpass"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, model.ErrValidation)
	}
	assert.Equal(t, 1, succeeded)
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	service, _ := newUserService(t)
	res, err := service.Register(ctx, model.RegisterUserArgs{Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)

	user, err := service.Authenticate(ctx, "alice", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID(), user.ID())

	_, err = service.Authenticate(ctx, "alice", "wrongpass")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = service.Authenticate(ctx, "nobody", "s3cretpass")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestUserService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	service, store := newUserService(t)
	res, err := service.Register(ctx, model.RegisterUserArgs{Username: "bob", Password: "s3cretpass", Profile: model.ProfileArgs{DisplayName: "Bob"}})
	require.NoError(t, err)
	id := res.User.ID()

	_, err = service.Pause(ctx, id)
	require.ErrorIs(t, err, model.ErrInvalidState)

	updated, err := service.UpdateProfile(ctx, model.UpdateProfileArgs{ID: id, Profile: completeProfile()})
	require.NoError(t, err)
	assert.Equal(t, model.StateActive, updated.User.State())

	paused, err := service.Pause(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatePaused, paused.State())

	active, err := service.Activate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StateActive, active.State())

	banned, err := service.Ban(ctx, id, "spam")
	require.NoError(t, err)
	assert.Equal(t, model.StateBanned, banned.State())

	stored, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StateBanned, stored.State())
	assert.Equal(t, "spam", stored.BanReason())

	_, err = service.UpdateProfile(ctx, model.UpdateProfileArgs{ID: id, Profile: completeProfile()})
	require.ErrorIs(t, err, model.ErrInvalidState)

	_, err = service.Activate(ctx, model.NewUserID())
	require.ErrorIs(t, err, model.ErrNotFound)

	got, err := service.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID())
}
