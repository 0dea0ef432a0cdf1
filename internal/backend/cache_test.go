package backend

import (
	"context"
	"net/http"
	"testing"
	"time"

	"coworkingbot/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedClient(t *testing.T) (*Client, *fakeBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c, fb := newTestClient(t, WithCache(rdb, time.Minute))
	return c, fb, mr
}

func TestCacheServesRepeatedLookups(t *testing.T) {
	c, fb, _ := newCachedClient(t)
	fb.on("get_settings", http.StatusOK, `{"status":"success","settings":{"rules_text":"Тишина","booking_limit":3}}`)

	ctx := context.Background()
	first, err := c.Settings(ctx)
	require.NoError(t, err)
	second, err := c.Settings(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "3", second.BookingLimit)
	assert.Equal(t, 1, fb.count("get_settings"))
}

func TestCacheInvalidatedByMutation(t *testing.T) {
	c, fb, _ := newCachedClient(t)
	fb.on("get_exceptions", http.StatusOK, `{"status":"success","exceptions":[]}`)
	fb.on("add_exception", http.StatusOK, `{"status":"success"}`)

	ctx := context.Background()
	_, err := c.Exceptions(ctx)
	require.NoError(t, err)

	require.NoError(t, c.AddException(ctx, map[string]any{"type": "day_off", "date": "01.02.2030"}))

	fb.on("get_exceptions", http.StatusOK, `{"status":"success","exceptions":[{"id":1,"type":"day_off","date":"01.02.2030"}]}`)
	list, err := c.Exceptions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 2, fb.count("get_exceptions"))
}

func TestCacheSkipsFailuresAndFreeSlots(t *testing.T) {
	c, fb, mr := newCachedClient(t)
	fb.on("get_reviews", http.StatusOK, `{"status":"error","message":"busy"}`)
	fb.on("get_free_slots", http.StatusOK, `{"status":"success","free_slots":["10:00-12:00"]}`)

	ctx := context.Background()
	_, err := c.Reviews(ctx, reviewsQueryAll())
	assert.Error(t, err)
	_, _ = c.FreeSlots(ctx, "01.02.2030")
	_, _ = c.FreeSlots(ctx, "01.02.2030")

	assert.Empty(t, mr.Keys())
	assert.Equal(t, 2, fb.count("get_free_slots"))
}

func TestCacheKeyIsOrderIndependent(t *testing.T) {
	a := cacheKey("get_reviews", map[string]any{"limit": 5, "public_only": true})
	b := cacheKey("get_reviews", map[string]any{"public_only": true, "limit": 5})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, cacheKey("get_reviews", map[string]any{"limit": 6, "public_only": true}))
}

func reviewsQueryAll() models.ReviewsQuery {
	return models.ReviewsQuery{Limit: 10}
}
