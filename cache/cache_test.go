package cache_test

import (
	"errors"
	"os"
	"testing"

	"git.fiblab.net/sim/roadnet/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Date  string
	Total int64
	Hours []float64
}

func TestLoadWithCache(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	load := func() (record, error) {
		calls++
		return record{Date: "2025-05-01", Total: 24000, Hours: []float64{1, 2}}, nil
	}

	v, err := cache.LoadWithCache(dir, "flows.daily", load)
	require.NoError(t, err)
	assert.Equal(t, int64(24000), v.Total)
	assert.Equal(t, 1, calls)
	_, err = os.Stat(cache.Path(dir, "flows.daily"))
	require.NoError(t, err)

	// 第二次命中缓存
	v, err = cache.LoadWithCache(dir, "flows.daily", load)
	require.NoError(t, err)
	assert.Equal(t, record{Date: "2025-05-01", Total: 24000, Hours: []float64{1, 2}}, v)
	assert.Equal(t, 1, calls)

	// 不同key不共享
	_, err = cache.LoadWithCache(dir, "flows.other", load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestLoadWithCacheDisabledAndErrors(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	_, err := cache.LoadWithCache("", "k", func() (int, error) {
		calls++
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	dir := t.TempDir()
	_, err = cache.LoadWithCache(dir, "k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	_, err = os.Stat(cache.Path(dir, "k"))
	assert.True(t, os.IsNotExist(err))

	// 损坏的缓存被忽略并重写
	require.NoError(t, os.WriteFile(cache.Path(dir, "k"), []byte("garbage"), 0o644))
	v, err := cache.LoadWithCache(dir, "k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	v, err = cache.LoadWithCache(dir, "k", func() (int, error) { return 8, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
