package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := NewClientFromAddr(mr.Addr())
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestClient_SetGet(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	type snapshot struct {
		LeagueID string `json:"league_id"`
		Status   string `json:"status"`
	}

	err := client.Set(ctx, "auction:state:league-1", snapshot{LeagueID: "league-1", Status: "live"}, time.Minute)
	require.NoError(t, err)

	var got snapshot
	err = client.Get(ctx, "auction:state:league-1", &got)
	require.NoError(t, err)
	assert.Equal(t, "league-1", got.LeagueID)
	assert.Equal(t, "live", got.Status)
}

func TestClient_GetMiss(t *testing.T) {
	client, _ := setupTestClient(t)

	var got map[string]interface{}
	err := client.Get(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestClient_Delete(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k1", "v1", time.Minute))
	require.NoError(t, client.Set(ctx, "k2", "v2", time.Minute))

	require.NoError(t, client.Delete(ctx, "k1", "k2"))

	exists, err := client.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_DeleteNoKeys(t *testing.T) {
	client, _ := setupTestClient(t)
	assert.NoError(t, client.Delete(context.Background()))
}

func TestClient_AcquireLock(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	ok, err := client.AcquireLock(ctx, "auction:lease:league-1", "token-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second holder cannot take the lease while it is held.
	ok, err = client.AcquireLock(ctx, "auction:lease:league-1", "token-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ReleaseLock(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	ok, err := client.AcquireLock(ctx, "auction:lease:league-1", "token-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Releasing with the wrong token leaves the lease in place.
	require.NoError(t, client.ReleaseLock(ctx, "auction:lease:league-1", "token-b"))
	ok, err = client.AcquireLock(ctx, "auction:lease:league-1", "token-c", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Releasing with the holder's token frees it.
	require.NoError(t, client.ReleaseLock(ctx, "auction:lease:league-1", "token-a"))
	ok, err = client.AcquireLock(ctx, "auction:lease:league-1", "token-c", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_LockExpiry(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	ok, err := client.AcquireLock(ctx, "auction:lease:league-1", "token-a", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(6 * time.Second)

	ok, err = client.AcquireLock(ctx, "auction:lease:league-1", "token-b", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_TTL(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k1", "v1", time.Minute))

	ttl, err := client.TTL(ctx, "k1")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestClient_Health(t *testing.T) {
	client, mr := setupTestClient(t)

	assert.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}
