package redis

import (
	"testing"
	"time"

	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwipeFromHash(t *testing.T) {
	swiper, target := model.NewUserID(), model.NewUserID()
	id := model.NewSwipeID()
	at := time.Date(2024, time.May, 1, 12, 0, 0, 500, time.UTC)

	tests := []struct {
		name    string
		fields  map[string]string
		wantErr bool
	}{
		{
			name: "valid",
			fields: map[string]string{
				"id": id.String(), "swiper_id": swiper.String(), "target_id": target.String(),
				"direction": "SUPER_LIKE", "created_at": at.Format(time.RFC3339Nano),
			},
		},
		{
			name: "unknown direction",
			fields: map[string]string{
				"id": id.String(), "swiper_id": swiper.String(), "target_id": target.String(),
				"direction": "MAYBE", "created_at": at.Format(time.RFC3339Nano),
			},
			wantErr: true,
		},
		{
			name: "bad time",
			fields: map[string]string{
				"id": id.String(), "swiper_id": swiper.String(), "target_id": target.String(),
				"direction": "LIKE", "created_at": "yesterday",
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := swipeFromHash(tt.fields)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.RestoreSwipe(id, swiper, target, model.SwipeSuperLike, at), s)
		})
	}
}

func TestMatchFromHash(t *testing.T) {
	a, b := model.NewUserID(), model.NewUserID()
	m, err := model.NewMatch(a, b, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	got, err := matchFromHash(map[string]string{
		"id":         m.ID().String(),
		"user_low":   m.UserLow().String(),
		"user_high":  m.UserHigh().String(),
		"created_at": m.CreatedAt().Format(time.RFC3339Nano),
	})
	require.NoError(t, err)
	assert.Equal(t, m.ID(), got.ID())
	assert.Equal(t, m.CreatedAt(), got.CreatedAt())
	assert.False(t, got.NewlyCreated())
}

func TestKeys(t *testing.T) {
	a, b := model.NewUserID(), model.NewUserID()
	assert.NotEqual(t, swipeKey(a, b), swipeKey(b, a))
	assert.Equal(t, "datingha:match:"+model.CanonicalMatchID(a, b).String(), matchKey(model.CanonicalMatchID(b, a)))
}
