package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/paghive/paghive/internal/api/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	destroyTimeout = 30 * time.Second
)

// Destroyer removes a hosted image by its public ID.
type Destroyer interface {
	Destroy(ctx context.Context, publicID string) error
}

// Dispatcher removes hosted images in the background. Public IDs are routed to
// a fixed set of workers by hash so repeated requests for the same image are
// handled by one worker in order. Failures are logged and counted, never
// returned to the caller.
type Dispatcher struct {
	workers []chan string
	media   Destroyer
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, media Destroyer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan string, numWorkers),
		media:   media,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers keep ctx's values but not its
// cancellation: they exit only after Stop has drained their queues.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Schedule enqueues publicID for removal. It never blocks: when the worker's
// queue is full, or the dispatcher is stopped, the request is dropped.
func (d *Dispatcher) Schedule(publicID string) {
	if publicID == "" {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.drop(publicID, "dispatcher stopped")
		return
	}

	idx := d.shardIndex(publicID)
	select {
	case d.workers[idx] <- publicID:
		metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(publicID, "queue full")
	}
}

// Stop closes the queues and waits for workers to finish pending removals.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) drop(publicID, reason string) {
	metrics.CleanupTotal.WithLabelValues("dropped").Inc()
	d.log.Warn().Str("public_id", publicID).Str("reason", reason).Msg("image cleanup dropped")
}

// shardIndex maps a public ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(publicID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(publicID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for publicID := range ch {
		metrics.CleanupQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
		d.destroy(ctx, id, publicID)
	}
}

func (d *Dispatcher) destroy(ctx context.Context, worker int, publicID string) {
	ctx, cancel := context.WithTimeout(ctx, destroyTimeout)
	defer cancel()

	if err := d.media.Destroy(ctx, publicID); err != nil {
		metrics.CleanupTotal.WithLabelValues("error").Inc()
		d.log.Warn().Err(err).
			Str("public_id", publicID).
			Int("worker_id", worker).
			Msg("image cleanup failed")
		return
	}
	metrics.CleanupTotal.WithLabelValues("ok").Inc()
	d.log.Debug().Str("public_id", publicID).Int("worker_id", worker).Msg("image removed")
}
