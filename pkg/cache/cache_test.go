package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	ID     uint64 `json:"id"`
	Status uint8  `json:"status"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	var got snapshot
	assert.ErrorIs(t, c.Get(ctx, "lot:1", &got), ErrCacheMiss)

	orig := &snapshot{ID: 1, Status: 2}
	require.NoError(t, c.Set(ctx, "lot:1", orig, time.Minute))
	orig.Status = 3 // 修改原对象不影响缓存

	require.NoError(t, c.Get(ctx, "lot:1", &got))
	assert.Equal(t, snapshot{ID: 1, Status: 2}, got)

	require.NoError(t, c.Delete(ctx, "lot:1"))
	assert.ErrorIs(t, c.Get(ctx, "lot:1", &got), ErrCacheMiss)
}

// failingCache 模拟 L2 不可用
type failingCache struct{}

func (failingCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis down")
}
func (failingCache) Get(context.Context, string, interface{}) error { return errors.New("redis down") }
func (failingCache) Delete(context.Context, string) error          { return errors.New("redis down") }

func TestMultiLevelCache(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache(time.Minute, time.Minute)
	l2 := NewMemoryCache(time.Minute, time.Minute)
	m := NewMultiLevelCache(l1, l2)

	require.NoError(t, m.Set(ctx, "lot:5", snapshot{ID: 5, Status: 3}, time.Hour))
	assert.Equal(t, 1, l1.ItemCount())

	// L1 被清掉后从 L2 回填
	require.NoError(t, l1.Delete(ctx, "lot:5"))
	var got snapshot
	require.NoError(t, m.Get(ctx, "lot:5", &got))
	assert.Equal(t, uint64(5), got.ID)
	assert.Equal(t, 1, l1.ItemCount())

	degraded := NewMultiLevelCache(NewMemoryCache(time.Minute, time.Minute), failingCache{})
	assert.Error(t, degraded.Set(ctx, "k", 1, time.Minute))
	var n int
	// L1 已写入，L2 故障不影响读
	require.NoError(t, degraded.Get(ctx, "k", &n))
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, degraded.Get(ctx, "missing", &n), ErrCacheMiss)
}
