package disk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiskScheduler(t *testing.T) {
	t.Run("schedule is non blocking", func(t *testing.T) {
		ds := newTestScheduler(t)

		data := make([]byte, PageSize)
		copy(data, []byte("hello world"))

		start := time.Now()
		ds.Schedule(NewRequest(1, data, true))
		elapsed := time.Since(start)

		assert.Less(t, elapsed, 50*time.Millisecond)
	})

	t.Run("can schedule read and write requests", func(t *testing.T) {
		ds := newTestScheduler(t)

		data := make([]byte, PageSize)
		copy(data, []byte("hello world"))

		writeReq := NewRequest(1, data, true)
		writeRespCh := ds.Schedule(writeReq)
		assert.True(t, (<-writeRespCh).Success)

		readReq := NewRequest(1, nil, false)
		readRespCh := ds.Schedule(readReq)
		res := <-readRespCh
		assert.True(t, res.Success)
		assert.Equal(t, data, res.Data)
	})

	t.Run("requests for distinct pages do not block each other", func(t *testing.T) {
		ds := newTestScheduler(t)

		const pages = 8
		chans := make([]<-chan Response, pages)
		for i := range pages {
			data := make([]byte, PageSize)
			copy(data, []byte{byte(i)})
			chans[i] = ds.Schedule(NewRequest(int64(i), data, true))
		}

		for i := range pages {
			res := <-chans[i]
			assert.True(t, res.Success)
		}
	})
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	dm := newTestManager(t)
	ds, err := NewScheduler(dm)
	assert.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = ds.Shutdown(ctx)
	})

	return ds
}
