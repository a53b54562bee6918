package disk

import (
	"context"
	"sync"

	"github.com/panjf2000/ants"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultWorkerPoolSize bounds the number of goroutines the scheduler
// leases from its ants.Pool at once; the teacher's version spawns one
// unbounded goroutine per distinct page id touched, which is fine for a
// handful of pages but unbounded under a large working set.
const defaultWorkerPoolSize = 64

// pageQueueDepth is the number of outstanding requests a single page's
// FIFO queue buffers before the dispatcher blocks.
const pageQueueDepth = 16

// Request is one disk I/O request: either a page read or a page write.
// Completion is signaled by exactly one Response sent on RespCh.
type Request struct {
	PageID int64
	Data   []byte
	Write  bool
	RespCh chan Response
}

// Response is the outcome of a Request.
type Response struct {
	Success bool
	Data    []byte
	Err     error
}

// NewRequest builds a Request with a fresh response channel.
func NewRequest(pageId int64, data []byte, isWrite bool) Request {
	return Request{
		PageID: pageId,
		Data:   data,
		Write:  isWrite,
		RespCh: make(chan Response, 1),
	}
}

// Scheduler serializes I/O per page id while letting unrelated pages
// proceed concurrently: each distinct page id gets its own FIFO queue,
// drained by a worker leased from a bounded goroutine pool. Ordering
// across distinct pages is not guaranteed, matching spec §6.
type Scheduler struct {
	manager *Manager
	logger  *zap.Logger

	reqCh chan Request
	pool  *ants.Pool

	mu         sync.Mutex
	pageQueues map[int64]chan Request

	poolSize int
	eg       *errgroup.Group
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger attaches a structured logger; nil is treated as a no-op
// logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWorkerPoolSize overrides the bounded pool's capacity.
func WithWorkerPoolSize(n int) Option {
	return func(s *Scheduler) { s.poolSize = n }
}

// NewScheduler starts a scheduler backed by manager. The dispatcher and
// its worker pool run until Shutdown is called.
func NewScheduler(manager *Manager, opts ...Option) (*Scheduler, error) {
	ds := &Scheduler{
		manager:    manager,
		logger:     zap.NewNop(),
		reqCh:      make(chan Request, 100),
		pageQueues: make(map[int64]chan Request),
		poolSize:   defaultWorkerPoolSize,
	}
	for _, opt := range opts {
		opt(ds)
	}

	pool, err := ants.NewPool(ds.poolSize)
	if err != nil {
		return nil, err
	}
	ds.pool = pool

	eg, _ := errgroup.WithContext(context.Background())
	ds.eg = eg
	ds.eg.Go(func() error {
		ds.dispatch()
		return nil
	})

	return ds, nil
}

// Schedule enqueues req and returns its response channel. Non-blocking
// unless the scheduler's ingress buffer is full.
func (ds *Scheduler) Schedule(req Request) <-chan Response {
	ds.reqCh <- req
	return req.RespCh
}

// Shutdown stops accepting new requests and waits until the dispatcher
// has handed every already-scheduled request to its page queue, or
// returns ctx.Err() if ctx expires first. It does not wait for the page
// workers to finish handling those requests.
func (ds *Scheduler) Shutdown(ctx context.Context) error {
	close(ds.reqCh)

	waitCh := make(chan error, 1)
	go func() { waitCh <- ds.eg.Wait() }()

	select {
	case err := <-waitCh:
		ds.pool.Release()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ds *Scheduler) dispatch() {
	for req := range ds.reqCh {
		ds.mu.Lock()
		queue, exists := ds.pageQueues[req.PageID]
		if !exists {
			queue = make(chan Request, pageQueueDepth)
			ds.pageQueues[req.PageID] = queue
		}
		ds.mu.Unlock()

		queue <- req

		// A queue that didn't already exist needs a worker to start
		// draining it.
		if !exists {
			pageID, q := req.PageID, queue
			if err := ds.pool.Submit(func() { ds.pageWorker(pageID, q) }); err != nil {
				ds.logger.Error("failed to submit disk worker", zap.Int64("page_id", pageID), zap.Error(err))
				ds.drainSynchronously(pageID, q)
			}
		}
	}
}

func (ds *Scheduler) pageWorker(pageID int64, queue chan Request) {
	for {
		select {
		case req := <-queue:
			ds.handle(req)
		default:
			// Queue momentarily empty: retire it. A concurrent Schedule
			// racing this check simply creates a fresh queue and worker.
			ds.mu.Lock()
			delete(ds.pageQueues, pageID)
			ds.mu.Unlock()
			return
		}
	}
}

// drainSynchronously handles a page's queue inline when the worker pool
// could not accept a new goroutine, so a request is never silently
// dropped.
func (ds *Scheduler) drainSynchronously(pageID int64, queue chan Request) {
	for {
		select {
		case req := <-queue:
			ds.handle(req)
		default:
			ds.mu.Lock()
			delete(ds.pageQueues, pageID)
			ds.mu.Unlock()
			return
		}
	}
}

func (ds *Scheduler) handle(req Request) {
	if req.Write {
		if err := ds.manager.WritePage(req.PageID, req.Data); err != nil {
			ds.logger.Error("disk write failed", zap.Int64("page_id", req.PageID), zap.Error(err))
			req.RespCh <- Response{Success: false, Err: err}
			return
		}
		req.RespCh <- Response{Success: true}
		return
	}

	data, err := ds.manager.ReadPage(req.PageID)
	if err != nil {
		ds.logger.Error("disk read failed", zap.Int64("page_id", req.PageID), zap.Error(err))
		req.RespCh <- Response{Success: false, Err: err}
		return
	}
	req.RespCh <- Response{Success: true, Data: data}
}
