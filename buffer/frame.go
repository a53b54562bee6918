package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/jobala/petrocore/storage/disk"
)

// frame is a fixed-size memory slot holding at most one page's worth of
// bytes at a time. Frames outlive the pages they hold (spec §3).
type frame struct {
	id     int
	mu     sync.RWMutex
	data   []byte
	pins   atomic.Int32
	dirty  atomic.Bool
	pageID int64
}

func newFrame(id int) *frame {
	return &frame{
		id:     id,
		data:   make([]byte, disk.PageSize),
		pageID: disk.InvalidPageID,
	}
}

func (f *frame) pin() int32      { return f.pins.Add(1) }
func (f *frame) unpin() int32    { return f.pins.Add(-1) }
func (f *frame) pinCount() int32 { return f.pins.Load() }

func (f *frame) markDirty()    { f.dirty.Store(true) }
func (f *frame) clearDirty()   { f.dirty.Store(false) }
func (f *frame) isDirty() bool { return f.dirty.Load() }

// reset clears a frame's content and metadata before it takes on a new
// page identity. Caller must hold f.mu for writing.
func (f *frame) reset() {
	f.dirty.Store(false)
	f.pins.Store(0)
	f.pageID = disk.InvalidPageID
	for i := range f.data {
		f.data[i] = 0
	}
}
