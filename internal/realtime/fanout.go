package realtime

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultFlushInterval = 2 * time.Second

// Deliverer pushes one batch to the listeners of a venue.
type Deliverer interface {
	Deliver(venueID string, b Batch) error
}

// Fanout queues dashboard payloads per venue and flushes each venue's queue
// as a single batch on a fixed interval. Enqueue only appends under the lock;
// the flush worker swaps the whole map out and delivers outside the lock.
type Fanout struct {
	mu      sync.Mutex
	pending map[string][]Payload

	out      Deliverer
	interval time.Duration
	log      *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func NewFanout(out Deliverer, interval time.Duration, log *zap.Logger) *Fanout {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fanout{
		pending:  make(map[string][]Payload),
		out:      out,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Enqueue appends p to the venue's queue and returns immediately.
func (f *Fanout) Enqueue(venueID string, p Payload) {
	f.mu.Lock()
	f.pending[venueID] = append(f.pending[venueID], p)
	f.mu.Unlock()
}

// Pending reports how many payloads wait for venueID.
func (f *Fanout) Pending(venueID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending[venueID])
}

// Flush drains every queue and delivers one batch per venue. A batch that
// cannot be delivered is dropped, not re-queued. It returns the number of
// batches delivered.
func (f *Fanout) Flush() int {
	f.mu.Lock()
	drained := f.pending
	f.pending = make(map[string][]Payload, len(drained))
	f.mu.Unlock()

	venues := make([]string, 0, len(drained))
	for venueID, list := range drained {
		if len(list) > 0 {
			venues = append(venues, venueID)
		}
	}
	sort.Strings(venues)

	delivered := 0
	for _, venueID := range venues {
		b := Batch{VenueID: venueID, Payloads: drained[venueID]}
		if err := f.out.Deliver(venueID, b); err != nil {
			f.log.Warn("realtime batch dropped",
				zap.String("venue_id", venueID),
				zap.Int("payloads", len(b.Payloads)),
				zap.Error(err))
			continue
		}
		delivered++
		f.log.Debug("realtime batch delivered",
			zap.String("venue_id", venueID),
			zap.Int("payloads", len(b.Payloads)))
	}
	return delivered
}

// Start launches the flush worker. It runs until ctx is cancelled or Stop is
// called, then flushes once more so nothing queued before shutdown is lost.
func (f *Fanout) Start(ctx context.Context) {
	f.startOnce.Do(func() {
		go f.run(ctx)
	})
}

func (f *Fanout) run(ctx context.Context) {
	defer close(f.done)
	t := time.NewTicker(f.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			f.Flush()
		case <-ctx.Done():
			f.Flush()
			return
		case <-f.stop:
			f.Flush()
			return
		}
	}
}

// Stop ends the flush worker and waits for its final flush. Calling Stop on
// a Fanout that was never started returns immediately.
func (f *Fanout) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
	started := true
	f.startOnce.Do(func() { started = false })
	if started {
		<-f.done
	}
}
