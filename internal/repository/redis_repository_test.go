package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepoWithServer(t *testing.T) (*RedisLinkRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisLinkRepository(rdb, "test"), mr
}

func TestRedisGetAllRejectsCorruptCounter(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRedisRepoWithServer(t)

	link := newLink("bad1", 1000)
	_, err := repo.Put(ctx, link)
	require.NoError(t, err)

	mr.HSet("test"+clicksSuffix, link.ID, "abc")

	_, err = repo.GetAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), link.ID)
}

func TestRedisGetAllMissingCounterIsZero(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRedisRepoWithServer(t)

	link := newLink("nocnt", 1000)
	_, err := repo.Put(ctx, link)
	require.NoError(t, err)

	mr.HDel("test"+clicksSuffix, link.ID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(0), all[0].Clicks)
}
