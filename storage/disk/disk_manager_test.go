package disk

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestDiskManager(t *testing.T) {
	t.Run("test page allocation", func(t *testing.T) {
		dm := newTestManager(t)

		offset1, err := dm.allocatePage()
		dm.pages[0] = offset1
		assert.NoError(t, err)

		offset2, err := dm.allocatePage()
		dm.pages[1] = offset2
		assert.NoError(t, err)

		assert.EqualValues(t, 0, offset1)
		assert.EqualValues(t, 4096, offset2)
	})

	t.Run("allocate reuses free slots", func(t *testing.T) {
		dm := newTestManager(t)
		dm.freeSlots = []int64{8192}

		offset, err := dm.allocatePage()
		assert.NoError(t, err)

		assert.EqualValues(t, 8192, offset)
		assert.Empty(t, dm.freeSlots)
	})

	t.Run("db file gets resized when full", func(t *testing.T) {
		dm := newTestManager(t)
		dm.pageCapacity = 1
		dm.pages = map[int64]int64{0: 0}

		offset, err := dm.allocatePage()
		assert.NoError(t, err)

		assert.EqualValues(t, 4096, offset)
		assert.EqualValues(t, 2, dm.pageCapacity)

		fileInfo, err := dm.file.Stat()
		assert.NoError(t, err)
		assert.Equal(t, int64(PageSize)*2, fileInfo.Size())
	})

	t.Run("reads back what was written", func(t *testing.T) {
		dm := newTestManager(t)

		buf := make([]byte, PageSize)
		copy(buf, []byte("hello world"))

		assert.NoError(t, dm.WritePage(1, buf))

		res, err := dm.ReadPage(1)
		assert.NoError(t, err)
		assert.Equal(t, buf, res)
	})

	t.Run("deleting a page frees its slot", func(t *testing.T) {
		dm := newTestManager(t)
		dm.pageCapacity = 1
		dm.pages[1] = 0
		assert.Empty(t, dm.freeSlots)

		dm.DeletePage(1)
		assert.Len(t, dm.freeSlots, 1)
	})
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	fs := afero.NewMemMapFs()
	dm, err := NewManager(fs, "/test.db")
	assert.NoError(t, err)

	t.Cleanup(func() { _ = dm.Shutdown() })
	return dm
}
