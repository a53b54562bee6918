package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jobala/petrocore/storage/disk"
	"github.com/jobala/petrocore/util"
	"go.uber.org/zap"
)

// PinnedPage is a pinned frame's identity plus a view over its bytes. It
// carries no latch by itself — callers that want latched access go
// through the page-guard helpers (page_guard.go); PinnedPage exists for
// the bare NewPage/FetchPage contract spec §4.2 describes, where pin
// lifetime is managed by explicit UnpinPage calls.
type PinnedPage struct {
	pageID int64
	frame  *frame
}

// PageID is the id this pinned page was fetched or allocated under.
func (p *PinnedPage) PageID() int64 { return p.pageID }

// Data returns the page's raw bytes. Mutating it without holding the
// frame's write latch (via a WritePageGuard) is a data race under
// concurrent access; NewPage/FetchPage callers that want to mutate
// safely should prefer FetchPageWrite/NewPageGuarded instead.
func (p *PinnedPage) Data() []byte { return p.frame.data }

// PoolManager is the buffer pool: it owns the frame array, the free
// list, the page table, and the replacer, and arbitrates all movement
// between memory and disk (spec §4.2).
type PoolManager struct {
	mu sync.Mutex

	id     uuid.UUID
	logger *zap.Logger

	frames    []*frame
	pageTable map[int64]int // page id -> frame id
	freeList  []int

	replacer  *lrukReplacer
	scheduler *disk.Scheduler

	nextPageID atomic.Int64
}

// Option configures a PoolManager.
type Option func(*PoolManager)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *PoolManager) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPoolManager builds a pool of size frames, backed by scheduler for
// I/O and an LRU-K replacer parameterized by k.
func NewPoolManager(size, k int, scheduler *disk.Scheduler, opts ...Option) *PoolManager {
	frames := make([]*frame, size)
	freeList := make([]int, size)
	for i := 0; i < size; i++ {
		frames[i] = newFrame(i)
		freeList[i] = i
	}

	pm := &PoolManager{
		id:        uuid.New(),
		logger:    zap.NewNop(),
		frames:    frames,
		pageTable: make(map[int64]int),
		freeList:  freeList,
		replacer:  NewLrukReplacer(size, k, nil),
		scheduler: scheduler,
	}
	for _, opt := range opts {
		opt(pm)
	}
	pm.replacer.logger = pm.logger

	pm.logger.Debug("buffer pool started", zap.String("pool_id", pm.id.String()), zap.Int("size", size), zap.Int("k", k))
	return pm
}

// AllocatePage returns the next monotonically increasing page id. This
// core never reuses ids (spec §4.2 "this core does not reuse ids").
func (pm *PoolManager) AllocatePage() int64 {
	return pm.nextPageID.Add(1) - 1
}

// DeallocatePage is a hook for a future id-reuse scheme; this core does
// not implement one.
func (pm *PoolManager) DeallocatePage(pageID int64) {}

// NewPage allocates a fresh page id, pins it into a frame, and returns a
// handle to its (zeroed) bytes. Returns ok=false if no frame is
// available (spec §7 "no capacity").
func (pm *PoolManager) NewPage() (*PinnedPage, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	f, ok := pm.acquireFrameLocked()
	if !ok {
		return nil, false
	}

	pageID := pm.AllocatePage()

	f.mu.Lock()
	f.reset()
	f.pageID = pageID
	f.pin()
	f.mu.Unlock()

	pm.pageTable[pageID] = f.id
	pm.replacer.recordAccess(f.id)
	pm.replacer.setEvictable(f.id, false)

	return &PinnedPage{pageID: pageID, frame: f}, true
}

// FetchPage pins pageID, reading it from disk on first access. Returns
// ok=false if pageID is not already resident and no frame is available.
func (pm *PoolManager) FetchPage(pageID int64) (*PinnedPage, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if frameID, resident := pm.pageTable[pageID]; resident {
		f := pm.frames[frameID]
		f.pin()
		pm.replacer.recordAccess(f.id)
		pm.replacer.setEvictable(f.id, false)
		return &PinnedPage{pageID: pageID, frame: f}, true
	}

	f, ok := pm.acquireFrameLocked()
	if !ok {
		return nil, false
	}

	data, err := pm.readThrough(pageID)
	if err != nil {
		util.ContractViolation("disk read failed: " + err.Error())
	}

	f.mu.Lock()
	f.reset()
	f.pageID = pageID
	copy(f.data, data)
	f.pin()
	f.mu.Unlock()

	pm.pageTable[pageID] = f.id
	pm.replacer.recordAccess(f.id)
	pm.replacer.setEvictable(f.id, false)

	return &PinnedPage{pageID: pageID, frame: f}, true
}

// UnpinPage decrements pageID's pin count, marking the page dirty if
// isDirty is set. Returns false if pageID is not resident or already
// unpinned.
func (pm *PoolManager) UnpinPage(pageID int64, isDirty bool) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	frameID, ok := pm.pageTable[pageID]
	if !ok {
		return false
	}

	f := pm.frames[frameID]
	if f.pinCount() <= 0 {
		return false
	}

	if isDirty {
		f.markDirty()
	}
	if f.unpin() == 0 {
		pm.replacer.setEvictable(f.id, true)
	}

	return true
}

// FlushPage writes pageID to disk through the scheduler if resident,
// clearing its dirty bit. Returns whether pageID was resident.
func (pm *PoolManager) FlushPage(pageID int64) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	frameID, ok := pm.pageTable[pageID]
	if !ok {
		return false
	}

	pm.flushFrameLocked(pm.frames[frameID])
	return true
}

// FlushAllPages flushes every resident page.
func (pm *PoolManager) FlushAllPages() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for pageID := range pm.pageTable {
		pm.flushFrameLocked(pm.frames[pm.pageTable[pageID]])
	}
}

// DeletePage removes pageID from the pool, returning its frame to the
// free list. Returns true if pageID is absent or was successfully
// deleted; false if pageID is pinned.
func (pm *PoolManager) DeletePage(pageID int64) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	frameID, ok := pm.pageTable[pageID]
	if !ok {
		return true
	}

	f := pm.frames[frameID]
	if f.pinCount() > 0 {
		return false
	}

	pm.replacer.remove(f.id)
	delete(pm.pageTable, pageID)
	pm.freeList = append(pm.freeList, f.id)

	f.mu.Lock()
	f.reset()
	f.mu.Unlock()

	pm.DeallocatePage(pageID)
	return true
}

// acquireFrameLocked returns a free frame, evicting (and flushing if
// dirty) a replacer victim if the free list is empty. Caller must hold
// pm.mu.
func (pm *PoolManager) acquireFrameLocked() (*frame, bool) {
	if len(pm.freeList) > 0 {
		id := pm.freeList[0]
		pm.freeList = pm.freeList[1:]
		return pm.frames[id], true
	}

	frameID, ok := pm.replacer.evict()
	if !ok {
		return nil, false
	}

	victim := pm.frames[frameID]
	pm.evictFlushLocked(victim)
	delete(pm.pageTable, victim.pageID)

	return victim, true
}

// evictFlushLocked writes f through the disk scheduler only if it is
// dirty, then clears its dirty bit. This is the eviction-path write
// gate: acquireFrameLocked only needs to preserve a victim's data, so a
// clean victim is simply discarded. Caller must hold pm.mu.
func (pm *PoolManager) evictFlushLocked(f *frame) {
	f.mu.RLock()
	dirty := f.isDirty()
	f.mu.RUnlock()

	if !dirty {
		return
	}
	pm.flushFrameLocked(f)
}

// flushFrameLocked writes f through the disk scheduler unconditionally
// and clears its dirty bit, regardless of prior dirty state (spec §4.2:
// FlushPage/FlushAllPages write through "regardless of prior state").
// Caller must hold pm.mu; the scheduler round trip is awaited with the
// pool latch held (spec §5: "the pool latch is held across the wait" —
// a known throughput limit, not a bug).
func (pm *PoolManager) flushFrameLocked(f *frame) {
	f.mu.RLock()
	pageID := f.pageID
	data := f.data
	f.mu.RUnlock()

	if pageID == disk.InvalidPageID {
		return
	}

	respCh := pm.scheduler.Schedule(disk.NewRequest(pageID, data, true))
	resp := <-respCh
	if !resp.Success {
		util.ContractViolation("disk write failed: " + errString(resp.Err))
	}
	f.clearDirty()
}

func (pm *PoolManager) readThrough(pageID int64) ([]byte, error) {
	respCh := pm.scheduler.Schedule(disk.NewRequest(pageID, nil, false))
	resp := <-respCh
	if !resp.Success {
		return nil, resp.Err
	}
	return resp.Data, nil
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
