package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipgate/clipgate/pkg/constants"
)

func testStore(t *testing.T) (*miniredis.Miniredis, *redisLinkTokenStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, &redisLinkTokenStore{client: client}
}

func TestMintAndResolve(t *testing.T) {
	_, store := testStore(t)
	ctx := context.Background()

	token, err := store.Mint(ctx, "dl", "https://tiktok.com/v/1", time.Hour)
	require.NoError(t, err)
	assert.Len(t, token, constants.LinkTokenLength)

	value, err := store.Resolve(ctx, "dl", token)
	require.NoError(t, err)
	assert.Equal(t, "https://tiktok.com/v/1", value)
}

func TestResolveUnknownTokenIsMiss(t *testing.T) {
	_, store := testStore(t)

	value, err := store.Resolve(context.Background(), "dl", "nope")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestTokensExpire(t *testing.T) {
	mr, store := testStore(t)
	ctx := context.Background()

	token, err := store.Mint(ctx, "dl", "value", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	value, err := store.Resolve(ctx, "dl", token)
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestNamespacesAreIsolated(t *testing.T) {
	_, store := testStore(t)
	ctx := context.Background()

	token, err := store.Mint(ctx, "dl", "value", time.Hour)
	require.NoError(t, err)

	value, err := store.Resolve(ctx, "other", token)
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestDeleteRemovesToken(t *testing.T) {
	_, store := testStore(t)
	ctx := context.Background()

	token, err := store.Mint(ctx, "dl", "value", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "dl", token))
	value, err := store.Resolve(ctx, "dl", token)
	require.NoError(t, err)
	assert.Empty(t, value)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete(ctx, "dl", token))
}

func TestMintedTokensAreUnique(t *testing.T) {
	_, store := testStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := store.Mint(ctx, "dl", "value", time.Hour)
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
