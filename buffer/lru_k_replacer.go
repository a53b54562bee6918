package buffer

import (
	"sync"

	"github.com/jobala/petrocore/util"
	"go.uber.org/zap"
)

// lrukReplacer implements the LRU-K eviction policy (spec §4.1): among
// evictable frames, frames with fewer than K accesses ("cold") are
// preferred victims over frames with K or more; within each class, the
// frame whose most recent access is oldest goes first. Moving a node to
// the front of its queue on every access and scanning from the back on
// eviction produces exactly that order without tracking K-th-access
// timestamps explicitly.
type lrukReplacer struct {
	mu        sync.Mutex
	k         int
	capacity  int
	currSize  int
	nodeStore map[int]*lrukNode
	lessK     *lrukList
	moreK     *lrukList
	logger    *zap.Logger
}

// NewLrukReplacer builds a replacer over capacity frames (ids
// [0, capacity)) using history length k.
func NewLrukReplacer(capacity, k int, logger *zap.Logger) *lrukReplacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &lrukReplacer{
		k:         k,
		capacity:  capacity,
		nodeStore: make(map[int]*lrukNode),
		lessK:     newLrukList(),
		moreK:     newLrukList(),
		logger:    logger,
	}
}

// listFor returns the queue node currently belongs (or would belong) in,
// based on its current access count.
func (lru *lrukReplacer) listFor(node *lrukNode) *lrukList {
	if node.k < lru.k {
		return lru.lessK
	}
	return lru.moreK
}

func (lru *lrukReplacer) validate(frameID int) {
	if frameID < 0 || frameID >= lru.capacity {
		util.ContractViolation("lru-k replacer: frame id out of range")
	}
}

// recordAccess records one access to frameID, creating bookkeeping for
// it on first sight (non-evictable, k=0, as spec §4.1 prescribes).
func (lru *lrukReplacer) recordAccess(frameID int) {
	lru.validate(frameID)

	lru.mu.Lock()
	defer lru.mu.Unlock()

	node, ok := lru.nodeStore[frameID]
	if !ok {
		node = &lrukNode{frameID: frameID}
		lru.nodeStore[frameID] = node
	} else {
		lru.listFor(node).remove(node)
	}

	node.k++
	lru.listFor(node).pushFront(node)
}

// setEvictable flips frameID's evictable flag, adjusting the evictable
// count. A no-op if frameID is unknown or already at the requested
// value.
func (lru *lrukReplacer) setEvictable(frameID int, evictable bool) {
	lru.validate(frameID)

	lru.mu.Lock()
	defer lru.mu.Unlock()

	node, ok := lru.nodeStore[frameID]
	if !ok || node.evictable == evictable {
		return
	}

	node.evictable = evictable
	if evictable {
		lru.currSize++
	} else {
		lru.currSize--
	}
}

// remove unconditionally drops frameID's bookkeeping. frameID must be
// evictable; removing a pinned (non-evictable) frame is a contract
// violation (spec §7). Unknown frame ids are a no-op.
func (lru *lrukReplacer) remove(frameID int) {
	lru.validate(frameID)

	lru.mu.Lock()
	defer lru.mu.Unlock()

	node, ok := lru.nodeStore[frameID]
	if !ok {
		return
	}
	if !node.evictable {
		util.ContractViolation("lru-k replacer: removing a non-evictable frame")
	}

	lru.listFor(node).remove(node)
	delete(lru.nodeStore, frameID)
	lru.currSize--
}

// evict picks a victim frame: the oldest evictable entry in lessK if
// any exists, else the oldest evictable entry in moreK. Returns
// (InvalidFrameID, false) if no evictable frame exists.
func (lru *lrukReplacer) evict() (int, bool) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	isEvictable := func(n *lrukNode) bool { return n.evictable }

	node := lru.lessK.findFromBack(isEvictable)
	from := "less_k"
	if node == nil {
		node = lru.moreK.findFromBack(isEvictable)
		from = "more_k"
	}
	if node == nil {
		return InvalidFrameID, false
	}

	lru.listFor(node).remove(node)
	delete(lru.nodeStore, node.frameID)
	lru.currSize--

	lru.logger.Debug("evicted frame", zap.Int("frame_id", node.frameID), zap.String("queue", from))
	return node.frameID, true
}

// size returns the number of currently evictable frames.
func (lru *lrukReplacer) size() int {
	lru.mu.Lock()
	defer lru.mu.Unlock()
	return lru.currSize
}
