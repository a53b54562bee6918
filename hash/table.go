package hash

import (
	"cmp"

	"github.com/jobala/petrocore/buffer"
	"github.com/jobala/petrocore/storage/disk"
	"github.com/jobala/petrocore/util"
	"go.uber.org/zap"
)

// HashFunc maps a key to a 32-bit digest.
type HashFunc[K any] func(K) uint32

// Table is an extendible hash table (spec §4.4): a header page fans out
// to directory pages, each of which fans out to bucket pages, growing
// and shrinking the directory as buckets split and merge. Everything
// lives through the buffer pool — Table holds no page bytes itself.
type Table[K cmp.Ordered, V any] struct {
	name              string
	bpm               *buffer.PoolManager
	hashFn            HashFunc[K]
	logger            *zap.Logger
	headerPageID      int64
	headerMaxDepth    uint32
	directoryMaxDepth uint32
	bucketMaxSize     int32
}

// Option configures a Table at construction time.
type Option func(*tableConfig)

type tableConfig struct {
	logger *zap.Logger
}

// WithLogger attaches a structured logger to the table's split/merge
// bookkeeping.
func WithLogger(logger *zap.Logger) Option {
	return func(c *tableConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a fresh table backed by bpm. hashFn defaults to
// DefaultHash[K] when nil. Construction parameters mirror spec §6:
// name, bpm, hashFn, headerMaxDepth, directoryMaxDepth, bucketMaxSize.
func New[K cmp.Ordered, V any](name string, bpm *buffer.PoolManager, hashFn HashFunc[K], headerMaxDepth, directoryMaxDepth, bucketMaxSize int, opts ...Option) (*Table[K, V], error) {
	if hashFn == nil {
		hashFn = DefaultHash[K]
	}

	cfg := tableConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	guard, ok := bpm.NewPageGuarded()
	if !ok {
		return nil, util.ErrNoCapacity
	}

	header := newHeaderPage(uint32(headerMaxDepth))
	write := guard.UpgradeWrite()
	headerPageID := write.PageID()
	writeHeader(write, header)
	write.Drop()

	cfg.logger.Debug("hash table created",
		zap.String("name", name),
		zap.Int64("header_page_id", headerPageID),
		zap.Int("header_max_depth", headerMaxDepth),
		zap.Int("directory_max_depth", directoryMaxDepth),
		zap.Int("bucket_max_size", bucketMaxSize),
	)

	return &Table[K, V]{
		name:              name,
		bpm:               bpm,
		hashFn:            hashFn,
		logger:            cfg.logger,
		headerPageID:      headerPageID,
		headerMaxDepth:    uint32(headerMaxDepth),
		directoryMaxDepth: uint32(directoryMaxDepth),
		bucketMaxSize:     int32(bucketMaxSize),
	}, nil
}

func writeHeader(g *buffer.WritePageGuard, h HeaderPage) {
	data, err := util.ToByteSlice(h)
	if err != nil {
		util.ContractViolation("header page: " + err.Error())
	}
	copy(g.DataMut(), data)
}

func writeDirectory(g *buffer.WritePageGuard, d DirectoryPage) {
	data, err := util.ToByteSlice(d)
	if err != nil {
		util.ContractViolation("directory page: " + err.Error())
	}
	copy(g.DataMut(), data)
}

func writeBucket[K comparable, V any](g *buffer.WritePageGuard, b BucketPage[K, V]) {
	data, err := util.ToByteSlice(b)
	if err != nil {
		util.ContractViolation("bucket page: " + err.Error())
	}
	copy(g.DataMut(), data)
}

// Get looks up key, descending header -> directory -> bucket under read
// latches released as soon as the next level's id is in hand.
func (t *Table[K, V]) Get(key K) (V, bool) {
	var zero V
	h := t.hashFn(key)

	headerGuard, ok := t.bpm.FetchPageRead(t.headerPageID)
	if !ok {
		return zero, false
	}
	header, err := util.ToStruct[HeaderPage](headerGuard.Data())
	headerGuard.Drop()
	if err != nil {
		return zero, false
	}

	dirPageID := header.DirectoryPageID(header.HashToDirectoryIndex(h))
	if dirPageID == disk.InvalidPageID {
		return zero, false
	}

	dirGuard, ok := t.bpm.FetchPageRead(dirPageID)
	if !ok {
		return zero, false
	}
	directory, err := util.ToStruct[DirectoryPage](dirGuard.Data())
	dirGuard.Drop()
	if err != nil {
		return zero, false
	}

	bucketPageID := directory.BucketPageID(directory.HashToBucketIndex(h))
	if bucketPageID == disk.InvalidPageID {
		return zero, false
	}

	bucketGuard, ok := t.bpm.FetchPageRead(bucketPageID)
	if !ok {
		return zero, false
	}
	defer bucketGuard.Drop()

	bucket, err := util.ToStruct[BucketPage[K, V]](bucketGuard.Data())
	if err != nil {
		return zero, false
	}

	return bucket.Lookup(key)
}

// Insert adds key -> value, splitting buckets (and, if necessary,
// doubling the directory) as needed. Returns false on a duplicate key
// or on directory-depth overflow (spec §4.4, §7).
func (t *Table[K, V]) Insert(key K, value V) bool {
	h := t.hashFn(key)

	headerGuard, ok := t.bpm.FetchPageWrite(t.headerPageID)
	if !ok {
		return false
	}
	header, err := util.ToStruct[HeaderPage](headerGuard.Data())
	if err != nil {
		headerGuard.Drop()
		return false
	}

	dirIdx := header.HashToDirectoryIndex(h)
	dirPageID := header.DirectoryPageID(dirIdx)

	var dirGuard *buffer.WritePageGuard
	var directory DirectoryPage

	if dirPageID == disk.InvalidPageID {
		guard, ok := t.bpm.NewPageGuarded()
		if !ok {
			headerGuard.Drop()
			return false
		}
		dirGuard = guard.UpgradeWrite()
		directory = newDirectoryPage(t.directoryMaxDepth)
		dirPageID = dirGuard.PageID()

		header.SetDirectoryPageID(dirIdx, dirPageID)
		writeHeader(headerGuard, header)
	} else {
		guard, ok := t.bpm.FetchPageWrite(dirPageID)
		if !ok {
			headerGuard.Drop()
			return false
		}
		directory, err = util.ToStruct[DirectoryPage](guard.Data())
		if err != nil {
			headerGuard.Drop()
			guard.Drop()
			return false
		}
		dirGuard = guard
	}
	headerGuard.Drop()

	bucketIdx := directory.HashToBucketIndex(h)
	bucketPageID := directory.BucketPageID(bucketIdx)

	if bucketPageID == disk.InvalidPageID {
		bucketGuard, ok := t.bpm.NewPageGuarded()
		if !ok {
			dirGuard.Drop()
			return false
		}
		bucketWrite := bucketGuard.UpgradeWrite()
		bucket := newBucketPage[K, V](t.bucketMaxSize)
		bucket.Insert(key, value)

		directory.SetBucketPageID(bucketIdx, bucketWrite.PageID())
		directory.SetLocalDepth(bucketIdx, 0)
		writeDirectory(dirGuard, directory)
		dirGuard.Drop()

		writeBucket(bucketWrite, bucket)
		bucketWrite.Drop()
		return true
	}

	bucketGuard, ok := t.bpm.FetchPageWrite(bucketPageID)
	if !ok {
		dirGuard.Drop()
		return false
	}
	bucket, err := util.ToStruct[BucketPage[K, V]](bucketGuard.Data())
	if err != nil {
		bucketGuard.Drop()
		dirGuard.Drop()
		return false
	}

	if _, exists := bucket.Lookup(key); exists {
		bucketGuard.Drop()
		dirGuard.Drop()
		return false
	}

	if !bucket.IsFull() {
		bucket.Insert(key, value)
		writeBucket(bucketGuard, bucket)
		bucketGuard.Drop()
		writeDirectory(dirGuard, directory)
		dirGuard.Drop()
		return true
	}

	ok = t.splitAndInsert(dirGuard, &directory, bucketGuard, bucket, bucketIdx, bucketPageID, h, key, value)
	writeDirectory(dirGuard, directory)
	dirGuard.Drop()
	return ok
}

// splitAndInsert runs the split loop of spec §4.4 step 4: while the
// target bucket is full, grow the directory if the bucket has already
// claimed every bit the directory offers, then split the bucket in two
// and rehash both the directory's pointers and the bucket's own
// entries. bucketGuard is dropped by this method before it returns;
// dirGuard is left held for the caller to persist and drop.
func (t *Table[K, V]) splitAndInsert(
	dirGuard *buffer.WritePageGuard, directory *DirectoryPage,
	bucketGuard *buffer.WritePageGuard, bucket BucketPage[K, V],
	bucketIdx uint32, bucketPageID int64, h uint32, key K, value V,
) bool {
	for bucket.IsFull() {
		localDepth := directory.LocalDepth(bucketIdx)
		if localDepth == directory.GlobalDepth {
			if directory.GlobalDepth == t.directoryMaxDepth {
				// Overflow: any bucket page allocated by an earlier
				// iteration of this loop stays allocated and wired into
				// the directory, which the caller persists; the splits
				// already made are not rolled back.
				bucketGuard.Drop()
				return false
			}
			directory.IncrGlobalDepth()
			t.logger.Debug("directory grew", zap.Uint32("global_depth", directory.GlobalDepth))
		}

		newLocalDepth := localDepth + 1
		newBucketGuard, ok := t.bpm.NewPageGuarded()
		if !ok {
			bucketGuard.Drop()
			return false
		}
		newBucketWrite := newBucketGuard.UpgradeWrite()
		newBucket := newBucketPage[K, V](t.bucketMaxSize)
		newBucketPageID := newBucketWrite.PageID()

		mask := uint32(1)<<newLocalDepth - 1
		newBucketImage := bucketIdx ^ (1 << (newLocalDepth - 1))

		size := directory.Size()
		for i := uint32(0); i < size; i++ {
			switch {
			case i&mask == newBucketImage&mask:
				directory.SetBucketPageID(i, newBucketPageID)
				directory.SetLocalDepth(i, newLocalDepth)
			case i&mask == bucketIdx&mask:
				directory.SetBucketPageID(i, bucketPageID)
				directory.SetLocalDepth(i, newLocalDepth)
			}
		}

		for i := 0; i < int(bucket.Size); {
			k := bucket.KeyAt(i)
			if t.hashFn(k)&mask == newBucketImage&mask {
				newBucket.Insert(k, bucket.ValueAt(i))
				bucket.RemoveAt(i)
				continue
			}
			i++
		}

		writeBucket(bucketGuard, bucket)
		writeBucket(newBucketWrite, newBucket)
		newBucketWrite.Drop()

		bucketIdx = directory.HashToBucketIndex(h)
		nextBucketPageID := directory.BucketPageID(bucketIdx)

		if nextBucketPageID != bucketPageID {
			bucketGuard.Drop()
			freshGuard, ok := t.bpm.FetchPageWrite(nextBucketPageID)
			if !ok {
				return false
			}
			bucketGuard = freshGuard
			bucketPageID = nextBucketPageID

			fresh, err := util.ToStruct[BucketPage[K, V]](bucketGuard.Data())
			if err != nil {
				bucketGuard.Drop()
				return false
			}
			bucket = fresh
		}
	}

	bucket.Insert(key, value)
	writeBucket(bucketGuard, bucket)
	bucketGuard.Drop()
	return true
}

// Remove deletes key, merging its bucket with its split-image sibling
// (cascading as far as depth allows) and shrinking the directory while
// possible (spec §4.4 step "Remove").
func (t *Table[K, V]) Remove(key K) bool {
	h := t.hashFn(key)

	headerGuard, ok := t.bpm.FetchPageRead(t.headerPageID)
	if !ok {
		return false
	}
	header, err := util.ToStruct[HeaderPage](headerGuard.Data())
	headerGuard.Drop()
	if err != nil {
		return false
	}

	dirPageID := header.DirectoryPageID(header.HashToDirectoryIndex(h))
	if dirPageID == disk.InvalidPageID {
		return false
	}

	dirGuard, ok := t.bpm.FetchPageWrite(dirPageID)
	if !ok {
		return false
	}
	directory, err := util.ToStruct[DirectoryPage](dirGuard.Data())
	if err != nil {
		dirGuard.Drop()
		return false
	}

	bucketIdx := directory.HashToBucketIndex(h)
	bucketPageID := directory.BucketPageID(bucketIdx)
	if bucketPageID == disk.InvalidPageID {
		dirGuard.Drop()
		return false
	}

	bucketGuard, ok := t.bpm.FetchPageWrite(bucketPageID)
	if !ok {
		dirGuard.Drop()
		return false
	}
	bucket, err := util.ToStruct[BucketPage[K, V]](bucketGuard.Data())
	if err != nil {
		bucketGuard.Drop()
		dirGuard.Drop()
		return false
	}

	if !bucket.Remove(key) {
		bucketGuard.Drop()
		dirGuard.Drop()
		return false
	}
	writeBucket(bucketGuard, bucket)
	bucketGuard.Drop()

	t.mergeLoop(&directory, bucket, bucketIdx, bucketPageID)

	for directory.CanShrink() {
		directory.DecrGlobalDepth()
	}

	writeDirectory(dirGuard, directory)
	dirGuard.Drop()
	return true
}

// mergeLoop implements spec §4.4 step "Remove" bullet 2: while the
// current bucket is empty and still commits more bits than depth 0,
// retarget its equivalence class onto its split-image sibling and
// deallocate it, then move to the survivor's own split image (a third
// bucket) and continue the cascade from there if it's valid.
func (t *Table[K, V]) mergeLoop(directory *DirectoryPage, bucket BucketPage[K, V], bucketIdx uint32, bucketPageID int64) {
	for bucket.IsEmpty() && directory.LocalDepth(bucketIdx) > 0 {
		localDepth := directory.LocalDepth(bucketIdx)
		siblingIdx := directory.SplitImageIndex(bucketIdx)
		if directory.LocalDepth(siblingIdx) != localDepth {
			break
		}

		siblingPageID := directory.BucketPageID(siblingIdx)
		newLocalDepth := localDepth - 1
		mask := uint32(1)<<newLocalDepth - 1

		size := directory.Size()
		for i := uint32(0); i < size; i++ {
			if i&mask == bucketIdx&mask {
				directory.SetBucketPageID(i, siblingPageID)
				directory.SetLocalDepth(i, newLocalDepth)
			}
		}

		t.bpm.DeletePage(bucketPageID)

		if newLocalDepth == 0 {
			break
		}

		// Continue the cascade from the survivor's own split image, a
		// third bucket distinct from both bucketIdx and siblingIdx, not
		// from the survivor itself.
		grandIdx := directory.SplitImageIndex(siblingIdx)
		grandPageID := directory.BucketPageID(grandIdx)
		if grandPageID == disk.InvalidPageID {
			break
		}

		guard, ok := t.bpm.FetchPageRead(grandPageID)
		if !ok {
			break
		}
		next, err := util.ToStruct[BucketPage[K, V]](guard.Data())
		guard.Drop()
		if err != nil {
			break
		}

		bucketIdx = grandIdx
		bucketPageID = grandPageID
		bucket = next
	}
}
