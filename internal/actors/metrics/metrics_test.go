package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSwipe(model.SwipeLike, false)
	c.RecordSwipe(model.SwipeLike, true)
	c.RecordSwipe(model.SwipeDislike, false)
	c.RecordMatchCreated()
	c.RecordProspectsServed(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.swipes.WithLabelValues("LIKE", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.swipes.WithLabelValues("LIKE", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.swipes.WithLabelValues("DISLIKE", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.matchesCreated))
	assert.Equal(t, 1, testutil.CollectAndCount(c.prospectsServed))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordMatchCreated()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "datingha_matches_created_total 1"))
}
