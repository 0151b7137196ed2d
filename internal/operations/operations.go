// Package operations implements the Operation Registry: every scan,
// clean, duplicate-find, or empty-trash run is tracked as a cancellable
// Operation with a UUID, progress percentage, and subscribable status
// updates. The register/unregister/broadcast channel shape is adapted
// from web/backend/websocket/hub.go's Hub, replacing its network
// transport (gorilla/websocket) with plain in-process subscriber
// channels; the identifier scheme uses the domain stack's
// google/uuid binding from SPEC_FULL.md §2.2, and ETA text formatting
// uses dustin/go-humanize.
package operations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/sweepd/sweepd/internal/errs"
)

// Kind identifies what an operation does.
type Kind string

const (
	KindScan        Kind = "scan"
	KindClean       Kind = "clean"
	KindDuplicates  Kind = "duplicates"
	KindEmptyTrash  Kind = "empty_trash"
)

// Status is an operation's lifecycle state.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Progress is a point-in-time snapshot of an operation, broadcast to
// subscribers on every update.
type Progress struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Status       Status    `json:"status"`
	Percent      float64   `json:"percent"`
	ItemsDone    int64     `json:"items_done"`
	ItemsTotal   int64     `json:"items_total"`
	BytesFreed   int64     `json:"bytes_freed,omitempty"`
	Message      string    `json:"message,omitempty"`
	ETA          string    `json:"eta,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Operation is a single tracked unit of work.
type Operation struct {
	registry *Registry

	mu       sync.Mutex
	progress Progress
	cancel   context.CancelFunc
	subs     map[chan Progress]struct{}
}

// ID returns the operation's UUID.
func (op *Operation) ID() string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.progress.ID
}

// Cancel requests cooperative cancellation; the running worker observes
// it via the context passed to Registry.Start's fn.
func (op *Operation) Cancel() {
	op.mu.Lock()
	cancel := op.cancel
	op.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Subscribe returns a channel that receives every progress update for
// this operation until Unsubscribe is called or the operation finishes.
// Buffered so a slow subscriber drops stale updates instead of
// blocking the worker, same backpressure contract as the teacher's
// Hub.broadcast select/default pattern.
func (op *Operation) Subscribe() chan Progress {
	ch := make(chan Progress, 16)
	op.mu.Lock()
	op.subs[ch] = struct{}{}
	snapshot := op.progress
	op.mu.Unlock()

	select {
	case ch <- snapshot:
	default:
	}
	return ch
}

// Unsubscribe stops and closes ch.
func (op *Operation) Unsubscribe(ch chan Progress) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if _, ok := op.subs[ch]; ok {
		delete(op.subs, ch)
		close(ch)
	}
}

// Snapshot returns the current progress.
func (op *Operation) Snapshot() Progress {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.progress
}

// Update reports progress and notifies subscribers, estimating an ETA
// from elapsed time and completion ratio.
func (op *Operation) Update(itemsDone, itemsTotal int64, message string) {
	op.mu.Lock()
	now := time.Now()
	op.progress.ItemsDone = itemsDone
	op.progress.ItemsTotal = itemsTotal
	op.progress.Message = message
	op.progress.UpdatedAt = now
	if itemsTotal > 0 {
		op.progress.Percent = 100 * float64(itemsDone) / float64(itemsTotal)
		if itemsDone > 0 {
			elapsed := now.Sub(op.progress.StartedAt)
			remaining := elapsed * time.Duration(itemsTotal-itemsDone) / time.Duration(itemsDone)
			op.progress.ETA = humanize.RelTime(now, now.Add(remaining), "", "")
		}
	}
	op.broadcastLocked()
	op.mu.Unlock()
}

func (op *Operation) finish(status Status, bytesFreed int64, message string) {
	op.mu.Lock()
	op.progress.Status = status
	op.progress.BytesFreed = bytesFreed
	op.progress.Message = message
	op.progress.UpdatedAt = time.Now()
	if status == StatusCompleted {
		op.progress.Percent = 100
	}
	op.broadcastLocked()
	op.mu.Unlock()

	op.registry.release(op)
}

// broadcastLocked must be called with op.mu held.
func (op *Operation) broadcastLocked() {
	snapshot := op.progress
	for ch := range op.subs {
		select {
		case ch <- snapshot:
		default:
			// Slow subscriber: drop the update rather than block the worker.
		}
	}
}

// Registry tracks every in-flight and recently-finished operation,
// enforcing one concurrent operation per Kind the way a single cleanup
// run excludes another per the teacher's Cleaner usage.
type Registry struct {
	mu         sync.Mutex
	byID       map[string]*Operation
	running    map[Kind]bool
	maxHistory int
	history    []*Operation
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:       make(map[string]*Operation),
		running:    make(map[Kind]bool),
		maxHistory: 50,
	}
}

// Start registers a new operation of kind, rejecting it if another
// operation of the same kind is already running, and runs fn in a
// background goroutine with a cancellable context.
func (r *Registry) Start(ctx context.Context, kind Kind, itemsTotal int64, fn func(ctx context.Context, op *Operation) (bytesFreed int64, err error)) (*Operation, error) {
	r.mu.Lock()
	if r.running[kind] {
		r.mu.Unlock()
		return nil, fmt.Errorf("operation of kind %s already running: %w", kind, errs.InUse)
	}
	r.running[kind] = true

	opCtx, cancel := context.WithCancel(ctx)
	now := time.Now()
	op := &Operation{
		registry: r,
		cancel:   cancel,
		subs:     make(map[chan Progress]struct{}),
		progress: Progress{
			ID:         uuid.NewString(),
			Kind:       kind,
			Status:     StatusRunning,
			ItemsTotal: itemsTotal,
			StartedAt:  now,
			UpdatedAt:  now,
		},
	}
	r.byID[op.progress.ID] = op
	r.mu.Unlock()

	go func() {
		bytesFreed, err := fn(opCtx, op)
		switch {
		case err != nil && errs.Is(err, errs.Cancelled):
			op.finish(StatusCancelled, bytesFreed, "cancelled")
		case err != nil:
			op.finish(StatusFailed, bytesFreed, err.Error())
		default:
			op.finish(StatusCompleted, bytesFreed, "")
		}
	}()

	return op, nil
}

func (r *Registry) release(op *Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running[op.progress.Kind] = false

	r.history = append(r.history, op)
	if len(r.history) > r.maxHistory {
		stale := r.history[0]
		delete(r.byID, stale.progress.ID)
		r.history = r.history[1:]
	}
}

// Get returns the operation with the given ID, if it's still tracked.
func (r *Registry) Get(id string) (*Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.byID[id]
	return op, ok
}

// IsRunning reports whether an operation of kind is currently active.
func (r *Registry) IsRunning(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[kind]
}
