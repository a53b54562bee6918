package hash

import (
	"testing"

	"github.com/jobala/petrocore/buffer"
	"github.com/jobala/petrocore/storage/disk"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func newTestPool(t *testing.T, size int) *buffer.PoolManager {
	t.Helper()

	dm, err := disk.NewManager(afero.NewMemMapFs(), "test.db")
	assert.NoError(t, err)

	scheduler, err := disk.NewScheduler(dm)
	assert.NoError(t, err)

	return buffer.NewPoolManager(size, 2, scheduler)
}

func TestTable(t *testing.T) {
	t.Run("inserted values round-trip through get", func(t *testing.T) {
		bpm := newTestPool(t, 16)
		table, err := New[string, int]("test", bpm, nil, 2, 2, 4)
		assert.NoError(t, err)

		values := map[string]int{"john": 25, "doe": 45, "jane": 40}
		for k, v := range values {
			assert.True(t, table.Insert(k, v))
		}

		for k, v := range values {
			got, ok := table.Get(k)
			assert.True(t, ok)
			assert.Equal(t, v, got)
		}
	})

	t.Run("duplicate insert is rejected and does not alter the value", func(t *testing.T) {
		bpm := newTestPool(t, 16)
		table, err := New[string, int]("test", bpm, nil, 2, 2, 4)
		assert.NoError(t, err)

		assert.True(t, table.Insert("k", 1))
		assert.False(t, table.Insert("k", 2))

		got, ok := table.Get("k")
		assert.True(t, ok)
		assert.Equal(t, 1, got)
	})

	t.Run("get on an absent key is false", func(t *testing.T) {
		bpm := newTestPool(t, 16)
		table, err := New[string, int]("test", bpm, nil, 2, 2, 4)
		assert.NoError(t, err)

		_, ok := table.Get("missing")
		assert.False(t, ok)
	})

	t.Run("insert past bucket_max_size triggers a split that still finds everything", func(t *testing.T) {
		bpm := newTestPool(t, 32)
		table, err := New[int, int]("test", bpm, func(k int) uint32 { return uint32(k) }, 2, 2, 2)
		assert.NoError(t, err)

		for i := 0; i < 4; i++ {
			assert.True(t, table.Insert(i, i*10))
		}

		for i := 0; i < 4; i++ {
			got, ok := table.Get(i)
			assert.True(t, ok)
			assert.Equal(t, i*10, got)
		}
		assert.Equal(t, 4, table.Size())
	})

	t.Run("insert/remove/get round trip leaves no trace", func(t *testing.T) {
		bpm := newTestPool(t, 32)
		table, err := New[int, int]("test", bpm, func(k int) uint32 { return uint32(k) }, 2, 2, 2)
		assert.NoError(t, err)

		assert.True(t, table.Insert(1, 10))
		assert.True(t, table.Remove(1))

		_, ok := table.Get(1)
		assert.False(t, ok)
	})

	t.Run("remove on an empty table is a no-op", func(t *testing.T) {
		bpm := newTestPool(t, 16)
		table, err := New[string, int]("test", bpm, nil, 2, 2, 4)
		assert.NoError(t, err)

		assert.False(t, table.Remove("nothing"))
	})

	t.Run("removing three of four split keys merges buckets back down", func(t *testing.T) {
		bpm := newTestPool(t, 32)
		table, err := New[int, int]("test", bpm, func(k int) uint32 { return uint32(k) }, 2, 2, 2)
		assert.NoError(t, err)

		keys := []int{0b00, 0b01, 0b10, 0b11}
		for _, k := range keys {
			assert.True(t, table.Insert(k, k))
		}

		assert.True(t, table.Remove(0b01))
		assert.True(t, table.Remove(0b10))
		assert.True(t, table.Remove(0b11))

		got, ok := table.Get(0b00)
		assert.True(t, ok)
		assert.Equal(t, 0, got)
		assert.Equal(t, 1, table.Size())
	})

	t.Run("insert overflowing directory_max_depth fails cleanly", func(t *testing.T) {
		bpm := newTestPool(t, 32)
		// directory_max_depth=0 means every key collides in a single
		// bucket that can never split.
		table, err := New[int, int]("test", bpm, func(int) uint32 { return 0 }, 1, 0, 1)
		assert.NoError(t, err)

		assert.True(t, table.Insert(1, 1))
		assert.False(t, table.Insert(2, 2))
	})

	t.Run("GetAllKeys reflects every inserted key", func(t *testing.T) {
		bpm := newTestPool(t, 32)
		table, err := New[int, int]("test", bpm, func(k int) uint32 { return uint32(k) }, 2, 2, 2)
		assert.NoError(t, err)

		for i := 0; i < 4; i++ {
			assert.True(t, table.Insert(i, i))
		}

		keys := table.GetAllKeys()
		assert.ElementsMatch(t, []int{0, 1, 2, 3}, keys)
	})
}
