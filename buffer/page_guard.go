package buffer

import "github.com/jobala/petrocore/util"

// BasicPageGuard holds a pin on a page without any frame latch. It is
// the cheapest guard tier (spec §4.3): callers that only need to read
// or write metadata already protected by some other lock (or that plan
// to immediately upgrade) start here instead of paying for a read or
// write latch they don't need yet.
//
// Guards are move-only: once consumed by Drop or an Upgrade call, valid
// is cleared, mirroring the moved-from state a C++ RAII guard would be
// left in. Upgrading a consumed guard is a contract violation; dropping
// it again is a no-op.
type BasicPageGuard struct {
	pageID int64
	frame  *frame
	bpm    *PoolManager
	valid  bool
}

func newBasicPageGuard(pageID int64, f *frame, bpm *PoolManager) *BasicPageGuard {
	return &BasicPageGuard{pageID: pageID, frame: f, bpm: bpm, valid: true}
}

// PageID returns the guarded page's id.
func (g *BasicPageGuard) PageID() int64 { return g.pageID }

// Data returns the page's bytes without any latch protection. Safe only
// when the caller holds some other exclusion guarantee.
func (g *BasicPageGuard) Data() []byte { return g.frame.data }

// Drop releases the guard's pin without marking the page dirty (a dirty
// bit already set on the frame stays set). Idempotent:
// dropping an already-dropped or nil guard is a no-op.
func (g *BasicPageGuard) Drop() {
	if g == nil || !g.valid {
		return
	}
	g.valid = false
	g.bpm.UnpinPage(g.pageID, false)
}

// UpgradeRead consumes the basic guard and returns a ReadPageGuard
// holding the frame's read latch. Upgrading a dropped guard is a
// contract violation.
func (g *BasicPageGuard) UpgradeRead() *ReadPageGuard {
	if !g.valid {
		util.ContractViolation("page guard: upgrading a dropped basic guard")
	}
	g.valid = false
	g.frame.mu.RLock()
	return &ReadPageGuard{pageID: g.pageID, frame: g.frame, bpm: g.bpm, valid: true}
}

// UpgradeWrite consumes the basic guard and returns a WritePageGuard
// holding the frame's write latch. Upgrading a dropped guard is a
// contract violation.
func (g *BasicPageGuard) UpgradeWrite() *WritePageGuard {
	if !g.valid {
		util.ContractViolation("page guard: upgrading a dropped basic guard")
	}
	g.valid = false
	g.frame.mu.Lock()
	return &WritePageGuard{pageID: g.pageID, frame: g.frame, bpm: g.bpm, valid: true}
}

// ReadPageGuard holds a pin plus the frame's read latch.
type ReadPageGuard struct {
	pageID int64
	frame  *frame
	bpm    *PoolManager
	valid  bool
}

// PageID returns the guarded page's id.
func (g *ReadPageGuard) PageID() int64 { return g.pageID }

// Data returns the page's bytes, safe for concurrent reads.
func (g *ReadPageGuard) Data() []byte { return g.frame.data }

// Drop releases the read latch and the pin. Idempotent.
func (g *ReadPageGuard) Drop() {
	if g == nil || !g.valid {
		return
	}
	g.valid = false
	g.frame.mu.RUnlock()
	g.bpm.UnpinPage(g.pageID, false)
}

// WritePageGuard holds a pin plus the frame's write latch.
type WritePageGuard struct {
	pageID int64
	frame  *frame
	bpm    *PoolManager
	valid  bool
}

// PageID returns the guarded page's id.
func (g *WritePageGuard) PageID() int64 { return g.pageID }

// Data returns the page's bytes for reading.
func (g *WritePageGuard) Data() []byte { return g.frame.data }

// DataMut returns the page's bytes for in-place mutation. The page is
// marked dirty unconditionally on Drop, whether or not the caller
// actually wrote through this slice.
func (g *WritePageGuard) DataMut() []byte { return g.frame.data }

// Drop releases the write latch and the pin, marking the page dirty.
// Idempotent.
func (g *WritePageGuard) Drop() {
	if g == nil || !g.valid {
		return
	}
	g.valid = false
	g.frame.mu.Unlock()
	g.bpm.UnpinPage(g.pageID, true)
}

// NewPageGuarded allocates a fresh page and returns a basic guard over
// it, or ok=false if the pool has no capacity.
func (pm *PoolManager) NewPageGuarded() (*BasicPageGuard, bool) {
	pp, ok := pm.NewPage()
	if !ok {
		return nil, false
	}
	return newBasicPageGuard(pp.pageID, pp.frame, pm), true
}

// FetchPageBasic fetches pageID and returns a basic guard over it.
func (pm *PoolManager) FetchPageBasic(pageID int64) (*BasicPageGuard, bool) {
	pp, ok := pm.FetchPage(pageID)
	if !ok {
		return nil, false
	}
	return newBasicPageGuard(pp.pageID, pp.frame, pm), true
}

// FetchPageRead fetches pageID and returns a guard holding its read
// latch.
func (pm *PoolManager) FetchPageRead(pageID int64) (*ReadPageGuard, bool) {
	pp, ok := pm.FetchPage(pageID)
	if !ok {
		return nil, false
	}
	pp.frame.mu.RLock()
	return &ReadPageGuard{pageID: pp.pageID, frame: pp.frame, bpm: pm, valid: true}, true
}

// FetchPageWrite fetches pageID and returns a guard holding its write
// latch.
func (pm *PoolManager) FetchPageWrite(pageID int64) (*WritePageGuard, bool) {
	pp, ok := pm.FetchPage(pageID)
	if !ok {
		return nil, false
	}
	pp.frame.mu.Lock()
	return &WritePageGuard{pageID: pp.pageID, frame: pp.frame, bpm: pm, valid: true}, true
}
