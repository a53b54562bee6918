package disk

import (
	"os"
	"sync"

	"github.com/go-faster/errors"
	"github.com/spf13/afero"
)

// Manager is the block-granular disk manager: it reads and writes whole
// pages by id against a single backing file. The file lives on an
// afero.Fs rather than directly on *os.File so a host can swap
// afero.NewOsFs() for afero.NewMemMapFs() in tests, the in-memory
// equivalent spec §6 asks the disk manager to be replaceable by.
type Manager struct {
	mu           sync.Mutex
	fs           afero.Fs
	file         afero.File
	pages        map[int64]int64 // page id -> byte offset
	freeSlots    []int64
	pageCapacity int64
}

// NewManager opens (creating if absent) path on fs and sizes it to hold
// DefaultPageCapacity pages.
func NewManager(fs afero.Fs, path string) (*Manager, error) {
	file, err := fs.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open db file")
	}

	dm := &Manager{
		fs:           fs,
		file:         file,
		pages:        make(map[int64]int64),
		freeSlots:    []int64{},
		pageCapacity: DefaultPageCapacity,
	}

	if err := file.Truncate(dm.pageCapacity * PageSize); err != nil {
		return nil, errors.Wrap(err, "size db file")
	}

	return dm, nil
}

// WritePage persists data (must be PageSize bytes) as pageId, allocating
// a slot on first write.
func (dm *Manager) WritePage(pageId int64, data []byte) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	offset, ok := dm.pages[pageId]
	if !ok {
		var err error
		offset, err = dm.allocatePage()
		if err != nil {
			return err
		}
		dm.pages[pageId] = offset
	}

	if _, err := dm.file.WriteAt(data, offset); err != nil {
		return errors.Wrapf(err, "write page %d at offset %d", pageId, offset)
	}

	return nil
}

// ReadPage returns the PageSize bytes stored for pageId, allocating a
// (zeroed) slot on first read of an id that was never written.
func (dm *Manager) ReadPage(pageId int64) ([]byte, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	offset, ok := dm.pages[pageId]
	if !ok {
		var err error
		offset, err = dm.allocatePage()
		if err != nil {
			return nil, err
		}
		if _, err := dm.file.WriteAt(make([]byte, PageSize), offset); err != nil {
			return nil, errors.Wrapf(err, "zero page %d at offset %d", pageId, offset)
		}
		dm.pages[pageId] = offset
	}

	buf := make([]byte, PageSize)
	if _, err := dm.file.ReadAt(buf, offset); err != nil {
		return nil, errors.Wrapf(err, "read page %d at offset %d", pageId, offset)
	}

	return buf, nil
}

// DeletePage releases pageId's slot for reuse. A no-op if pageId was
// never allocated.
func (dm *Manager) DeletePage(pageId int64) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if offset, ok := dm.pages[pageId]; ok {
		dm.freeSlots = append(dm.freeSlots, offset)
		delete(dm.pages, pageId)
	}
}

// Shutdown closes the backing file. Safe to call once.
func (dm *Manager) Shutdown() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.file.Close()
}

func (dm *Manager) allocatePage() (int64, error) {
	if len(dm.freeSlots) > 0 {
		offset := dm.freeSlots[0]
		dm.freeSlots = dm.freeSlots[1:]
		return offset, nil
	}

	if int64(len(dm.pages))+1 > dm.pageCapacity {
		dm.pageCapacity *= 2
		if err := dm.file.Truncate(dm.pageCapacity * PageSize); err != nil {
			return -1, errors.Wrap(err, "resize db file")
		}
	}

	return dm.nextOffset(), nil
}

func (dm *Manager) nextOffset() int64 {
	return int64(len(dm.pages)) * PageSize
}
