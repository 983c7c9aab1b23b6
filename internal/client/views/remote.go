package views

import (
	"context"
	"sync"
)

// Status is the lifecycle of a remote resource.
type Status int

const (
	Idle Status = iota
	Pending
	Failed
	Loaded
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// Remote tracks one fetch of a value of type T. A failed fetch stays failed
// until Reset.
type Remote[T any] struct {
	mu     sync.Mutex
	gen    uint64
	status Status
	value  T
	err    error
}

// Load runs fetch when the resource is Idle. Otherwise it returns the error of
// the previous fetch, if any.
func (r *Remote[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) error {
	r.mu.Lock()
	if r.status != Idle {
		err := r.err
		r.mu.Unlock()
		return err
	}
	r.status = Pending
	gen := r.gen
	r.mu.Unlock()

	v, err := fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		// reset while in flight; the result belongs to an older session
		return err
	}
	if err != nil {
		r.status, r.err = Failed, err
		return err
	}
	r.status, r.value = Loaded, v
	return nil
}

// Snapshot returns the current status, value and error.
func (r *Remote[T]) Snapshot() (Status, T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.value, r.err
}

// Reset forgets the value so that the next Load fetches again.
func (r *Remote[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	r.gen++
	r.status, r.value, r.err = Idle, zero, nil
}
