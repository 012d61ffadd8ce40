package mpr121

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/touchsense/components/board/genericlinux/buses"
	"go.viam.com/touchsense/testutils/inject"
)

var errNack = errors.New("nack")

// fakeChip records every transaction and answers status reads from a script.
type fakeChip struct {
	mu sync.Mutex

	requests []buses.Request
	writes   int
	reads    int

	// failWrite fails the write with this zero-based index; -1 disables it.
	failWrite int
	// statuses are returned by successive status reads; the last one repeats.
	statuses []uint16
	// readErr, if set, is consulted before every status read with its zero-based index.
	readErr func(n int) error
	// data answers filtered and baseline reads.
	data   map[byte][]byte
	closed bool
}

func newFakeChip(statuses ...uint16) *fakeChip {
	return &fakeChip{failWrite: -1, statuses: statuses, data: map[byte][]byte{}}
}

func (f *fakeChip) client() *inject.TransactionClient {
	return &inject.TransactionClient{
		TransactFunc: f.transact,
		CloseFunc: func() error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.closed = true
			return nil
		},
	}
}

func (f *fakeChip) transact(ctx context.Context, req buses.Request) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.Command == buses.CommandWrite {
		n := f.writes
		f.writes++
		if n == f.failWrite {
			return nil, &buses.BusError{Request: req, Err: errNack}
		}
		f.requests = append(f.requests, req)
		return nil, nil
	}

	if req.Data[0] != touchStatusRegister {
		f.requests = append(f.requests, req)
		if d, ok := f.data[req.Data[0]]; ok {
			return d, nil
		}
		return make([]byte, req.ResponseLength), nil
	}

	n := f.reads
	f.reads++
	if f.readErr != nil {
		if err := f.readErr(n); err != nil {
			return nil, &buses.BusError{Request: req, Err: err}
		}
	}
	f.requests = append(f.requests, req)
	status := uint16(0)
	if len(f.statuses) > 0 {
		if n < len(f.statuses) {
			status = f.statuses[n]
		} else {
			status = f.statuses[len(f.statuses)-1]
		}
	}
	return []byte{byte(status), byte(status >> 8)}, nil
}

func (f *fakeChip) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *fakeChip) writtenFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var frames [][]byte
	for _, req := range f.requests {
		if req.Command == buses.CommandWrite {
			frames = append(frames, req.Frame())
		}
	}
	return frames
}

func (f *fakeChip) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
	f.writes = 0
}
