package hash

import (
	"github.com/jobala/petrocore/storage/disk"
	"github.com/jobala/petrocore/util"
)

// Size reports the number of live entries across every bucket reachable
// from the directory. Not in spec.md's distillation, but a natural,
// read-only, latch-disciplined traversal for a complete extendible hash
// table — the same role the teacher's BatchInsert/GetKeyRange fill for
// the B+Tree.
func (t *Table[K, V]) Size() int {
	count := 0
	t.walkBuckets(func(b BucketPage[K, V]) {
		count += int(b.Size)
	})
	return count
}

// GetAllKeys returns every key currently stored, in bucket-traversal
// order (not sorted). Intended for debugging and tests.
func (t *Table[K, V]) GetAllKeys() []K {
	keys := []K{}
	t.walkBuckets(func(b BucketPage[K, V]) {
		keys = append(keys, b.Keys...)
	})
	return keys
}

// walkBuckets read-latches the header, each distinct directory page,
// and each distinct bucket page exactly once, in that order, applying
// fn to every bucket it finds.
func (t *Table[K, V]) walkBuckets(fn func(BucketPage[K, V])) {
	headerGuard, ok := t.bpm.FetchPageRead(t.headerPageID)
	if !ok {
		return
	}
	header, err := util.ToStruct[HeaderPage](headerGuard.Data())
	headerGuard.Drop()
	if err != nil {
		return
	}

	seenDirs := make(map[int64]bool)
	for _, dirPageID := range header.DirectoryPageIDs {
		if dirPageID == disk.InvalidPageID || seenDirs[dirPageID] {
			continue
		}
		seenDirs[dirPageID] = true

		dirGuard, ok := t.bpm.FetchPageRead(dirPageID)
		if !ok {
			continue
		}
		directory, err := util.ToStruct[DirectoryPage](dirGuard.Data())
		dirGuard.Drop()
		if err != nil {
			continue
		}

		seenBuckets := make(map[int64]bool)
		size := directory.Size()
		for i := uint32(0); i < size; i++ {
			bucketPageID := directory.BucketPageID(i)
			if bucketPageID == disk.InvalidPageID || seenBuckets[bucketPageID] {
				continue
			}
			seenBuckets[bucketPageID] = true

			bucketGuard, ok := t.bpm.FetchPageRead(bucketPageID)
			if !ok {
				continue
			}
			bucket, err := util.ToStruct[BucketPage[K, V]](bucketGuard.Data())
			bucketGuard.Drop()
			if err != nil {
				continue
			}

			fn(bucket)
		}
	}
}
