package redisclient

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestLockContention(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	release, err := c.Lock(ctx, "session:table-1", time.Minute)
	require.NoError(t, err)

	_, err = c.Lock(ctx, "session:table-1", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := c.Lock(ctx, "session:table-2", time.Minute)
	require.NoError(t, err)
	other()

	release()
	again, err := c.Lock(ctx, "session:table-1", time.Minute)
	require.NoError(t, err)
	again()
}

func TestLockConcurrent(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	const callers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired int
		held     int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Lock(ctx, "session:table-1", time.Minute)
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				acquired++
			case ErrLockHeld:
				held++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired)
	assert.Equal(t, callers-1, held)
}

func TestLockReleaseWithStaleToken(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	stale, err := c.Lock(ctx, "session:table-1", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	current, err := c.Lock(ctx, "session:table-1", time.Minute)
	require.NoError(t, err)

	// the expired holder must not remove the new holder's lock
	stale()
	assert.True(t, mr.Exists("lock:session:table-1"))
	_, err = c.Lock(ctx, "session:table-1", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	current()
	assert.False(t, mr.Exists("lock:session:table-1"))
}

func TestIdempotencyKeys(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	seen, err := c.CheckIdempotencyKey(ctx, "notification:e1")
	require.NoError(t, err)
	assert.False(t, seen)

	set, err := c.SetIdempotencyKey(ctx, "notification:e1", time.Hour)
	require.NoError(t, err)
	assert.True(t, set)

	set, err = c.SetIdempotencyKey(ctx, "notification:e1", time.Hour)
	require.NoError(t, err)
	assert.False(t, set)

	seen, err = c.CheckIdempotencyKey(ctx, "notification:e1")
	require.NoError(t, err)
	assert.True(t, seen)

	mr.FastForward(2 * time.Hour)
	seen, err = c.CheckIdempotencyKey(ctx, "notification:e1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestNotificationFeedTrimmed(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, c.PushNotification(ctx, []byte(fmt.Sprintf(`{"id":"o%d"}`, i)), 3))
	}

	entries, err := c.RecentNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, `{"id":"o5"}`, string(entries[0]))
	assert.Equal(t, `{"id":"o3"}`, string(entries[2]))

	entries, err = c.RecentNotifications(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
