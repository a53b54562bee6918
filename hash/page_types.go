package hash

import "github.com/jobala/petrocore/storage/disk"

// HeaderPage holds up to 2^MaxDepth directory page ids (spec §4.4, §4.6).
type HeaderPage struct {
	MaxDepth         uint32
	DirectoryPageIDs []int64
}

func newHeaderPage(maxDepth uint32) HeaderPage {
	ids := make([]int64, 1<<maxDepth)
	for i := range ids {
		ids[i] = disk.InvalidPageID
	}
	return HeaderPage{MaxDepth: maxDepth, DirectoryPageIDs: ids}
}

// HashToDirectoryIndex returns the top MaxDepth bits of h.
func (h *HeaderPage) HashToDirectoryIndex(hash uint32) uint32 {
	if h.MaxDepth == 0 {
		return 0
	}
	return hash >> (32 - h.MaxDepth)
}

func (h *HeaderPage) DirectoryPageID(idx uint32) int64        { return h.DirectoryPageIDs[idx] }
func (h *HeaderPage) SetDirectoryPageID(idx uint32, id int64) { h.DirectoryPageIDs[idx] = id }

// DirectoryPage holds up to 2^MaxDepth bucket page ids, a per-bucket
// local depth, and one global depth (spec §4.4, §4.6).
type DirectoryPage struct {
	MaxDepth      uint32
	GlobalDepth   uint32
	LocalDepths   []uint8
	BucketPageIDs []int64
}

func newDirectoryPage(maxDepth uint32) DirectoryPage {
	size := 1 << maxDepth
	ids := make([]int64, size)
	depths := make([]uint8, size)
	for i := range ids {
		ids[i] = disk.InvalidPageID
	}
	return DirectoryPage{MaxDepth: maxDepth, LocalDepths: depths, BucketPageIDs: ids}
}

// Size is the number of directory slots currently addressable:
// 2^GlobalDepth.
func (d *DirectoryPage) Size() uint32 { return 1 << d.GlobalDepth }

// HashToBucketIndex masks h down to the low GlobalDepth bits.
func (d *DirectoryPage) HashToBucketIndex(hash uint32) uint32 {
	if d.GlobalDepth == 0 {
		return 0
	}
	return hash & ((1 << d.GlobalDepth) - 1)
}

func (d *DirectoryPage) BucketPageID(idx uint32) int64         { return d.BucketPageIDs[idx] }
func (d *DirectoryPage) SetBucketPageID(idx uint32, id int64)  { d.BucketPageIDs[idx] = id }
func (d *DirectoryPage) LocalDepth(idx uint32) uint32          { return uint32(d.LocalDepths[idx]) }
func (d *DirectoryPage) SetLocalDepth(idx uint32, depth uint32) { d.LocalDepths[idx] = uint8(depth) }

// SplitImageIndex returns idx's sibling: the directory entry differing
// only in the high bit of its local depth.
func (d *DirectoryPage) SplitImageIndex(idx uint32) uint32 {
	localDepth := d.LocalDepth(idx)
	if localDepth == 0 {
		return idx
	}
	return idx ^ (1 << (localDepth - 1))
}

// IncrGlobalDepth duplicates the lower half of the directory into the
// upper half (same bucket ids and local depths) and increments
// GlobalDepth.
func (d *DirectoryPage) IncrGlobalDepth() {
	size := d.Size()
	for i := uint32(0); i < size; i++ {
		d.BucketPageIDs[size+i] = d.BucketPageIDs[i]
		d.LocalDepths[size+i] = d.LocalDepths[i]
	}
	d.GlobalDepth++
}

func (d *DirectoryPage) DecrGlobalDepth() { d.GlobalDepth-- }

// CanShrink reports whether the upper half of the directory is
// logically dead: global depth positive and no bucket committed to the
// full global depth.
func (d *DirectoryPage) CanShrink() bool {
	if d.GlobalDepth == 0 {
		return false
	}
	size := d.Size()
	for i := uint32(0); i < size; i++ {
		if uint32(d.LocalDepths[i]) == d.GlobalDepth {
			return false
		}
	}
	return true
}

// BucketPage stores an array of (key, value) pairs with a count (spec
// §4.4, §4.6).
type BucketPage[K comparable, V any] struct {
	Size    int32
	MaxSize int32
	Keys    []K
	Values  []V
}

func newBucketPage[K comparable, V any](maxSize int32) BucketPage[K, V] {
	return BucketPage[K, V]{
		MaxSize: maxSize,
		Keys:    make([]K, 0, maxSize),
		Values:  make([]V, 0, maxSize),
	}
}

func (b *BucketPage[K, V]) IsFull() bool  { return b.Size >= b.MaxSize }
func (b *BucketPage[K, V]) IsEmpty() bool { return b.Size == 0 }

func (b *BucketPage[K, V]) Lookup(key K) (V, bool) {
	for i, k := range b.Keys {
		if k == key {
			return b.Values[i], true
		}
	}
	var zero V
	return zero, false
}

func (b *BucketPage[K, V]) Insert(key K, value V) bool {
	if b.IsFull() {
		return false
	}
	if _, ok := b.Lookup(key); ok {
		return false
	}
	b.Keys = append(b.Keys, key)
	b.Values = append(b.Values, value)
	b.Size++
	return true
}

func (b *BucketPage[K, V]) Remove(key K) bool {
	for i, k := range b.Keys {
		if k == key {
			b.RemoveAt(i)
			return true
		}
	}
	return false
}

func (b *BucketPage[K, V]) RemoveAt(idx int) {
	b.Keys = append(b.Keys[:idx], b.Keys[idx+1:]...)
	b.Values = append(b.Values[:idx], b.Values[idx+1:]...)
	b.Size--
}

func (b *BucketPage[K, V]) KeyAt(idx int) K   { return b.Keys[idx] }
func (b *BucketPage[K, V]) ValueAt(idx int) V { return b.Values[idx] }
