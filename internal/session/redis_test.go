package session

import (
	"context"
	"testing"
	"time"

	"github.com/JonMunkholm/glee/internal/core"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStore(client, "", time.Hour)
}

func testSession() *core.Session {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s := core.NewSession("s-1", "alumnae", core.Actor{ID: "user-1"}, now)
	s.FileName = "alumnae.csv"
	s.Phase = core.PhaseValidate
	s.Header = []string{"email", "full_name"}
	s.Records = []core.ParsedRecord{{
		Row: 2,
		Key: "a@example.com",
		Values: core.Values{
			"email":       core.StringValue("a@example.com"),
			"last_update": core.TimeValue(now),
			"interests":   core.ListValue([]string{"reunions"}),
		},
		Issues: []core.Issue{{Row: 2, Field: "voice_part", Message: "Invalid voice_part", Level: core.LevelWarning}},
	}}
	return s
}

func TestRedisStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	mr, store := setupRedis(t)

	want := testSession()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Phase, got.Phase)
	assert.Equal(t, want.Records[0].Key, got.Records[0].Key)
	assert.True(t, got.Records[0].Values.Time("last_update").Equal(*want.Records[0].Values.Time("last_update")))
	assert.Equal(t, []string{"reunions"}, got.Records[0].Values.List("interests"))
	assert.Equal(t, 1, got.Summary().Warnings)

	assert.True(t, mr.Exists(DefaultKeyPrefix+"session:s-1"))
	assert.Equal(t, time.Hour, mr.TTL(DefaultKeyPrefix+"session:s-1"))
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, store := setupRedis(t)

	require.NoError(t, store.Save(ctx, testSession()))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestRedisStore_GetMissing(t *testing.T) {
	_, store := setupRedis(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestRedisStore_ImportLock(t *testing.T) {
	ctx := context.Background()
	mr, store := setupRedis(t)

	ok, err := store.AcquireImport(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AcquireImport(ctx, "s-1")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	require.NoError(t, store.ReleaseImport(ctx, "s-1"))
	ok, err = store.AcquireImport(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(lockTTL + time.Second)
	ok, err = store.AcquireImport(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, ok, "lock expires after lockTTL")
}

func TestRedisStore_Delete(t *testing.T) {
	ctx := context.Background()
	mr, store := setupRedis(t)

	require.NoError(t, store.Save(ctx, testSession()))
	_, err := store.AcquireImport(ctx, "s-1")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "s-1"))
	assert.False(t, mr.Exists(DefaultKeyPrefix+"session:s-1"))
	assert.False(t, mr.Exists(DefaultKeyPrefix+"lock:s-1"))
}

func TestRedisStore_ServiceFlow(t *testing.T) {
	ctx := context.Background()
	_, store := setupRedis(t)

	var _ core.SessionStore = store

	s := testSession()
	require.NoError(t, store.Save(ctx, s))
	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NoError(t, got.Confirm(time.Now()))
	require.NoError(t, store.Save(ctx, got))

	got, err = store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PhaseConfirm, got.Phase)
}
