package email

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultWorkers     = 4
	DefaultQueueSize   = 256
	DefaultSendTimeout = 30 * time.Second
)

// Request asks for one templated email.
type Request struct {
	ID         string // stable per notification, used for de-duplication
	To         string
	Subject    string
	TemplateID string
	Context    map[string]any
}

type Options struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
	From        string
	Dedup       Deduper // optional
}

// Dispatcher renders and sends emails on a fixed pool of workers fed by a
// bounded queue. Dispatch never waits: when the queue is full the request is
// dropped and logged. Send failures are logged and otherwise ignored.
type Dispatcher struct {
	renderer  *Renderer
	transport Transport
	opts      Options
	log       *zap.Logger

	mu      sync.RWMutex
	closed  bool
	inbox   chan Request
	wg      sync.WaitGroup
	started sync.Once
	cancel  context.CancelFunc
}

func NewDispatcher(r *Renderer, t Transport, opts Options, log *zap.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		renderer:  r,
		transport: t,
		opts:      opts,
		log:       log,
		inbox:     make(chan Request, opts.QueueSize),
	}
}

// Start launches the workers. They stop once Close has drained the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.started.Do(func() {
		ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		d.cancel = cancel
		for i := 0; i < d.opts.Workers; i++ {
			d.wg.Add(1)
			go d.work(ctx)
		}
	})
}

// Dispatch queues req and reports whether it was accepted.
func (d *Dispatcher) Dispatch(req Request) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("email dispatcher closed, dropping", zap.String("notification_id", req.ID))
		return false
	}
	select {
	case d.inbox <- req:
		return true
	default:
		d.log.Warn("email queue full, dropping",
			zap.String("notification_id", req.ID),
			zap.String("template", req.TemplateID))
		return false
	}
}

// Close stops accepting requests, lets the workers finish what is queued and
// waits for them.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.inbox)
	d.mu.Unlock()

	d.wg.Wait()
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for req := range d.inbox {
		d.send(ctx, req)
	}
}

func (d *Dispatcher) send(ctx context.Context, req Request) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("email send panicked", zap.String("notification_id", req.ID), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()
	log := d.log.With(
		zap.String("notification_id", req.ID),
		zap.String("template", req.TemplateID),
		zap.String("to", req.To))

	if d.opts.Dedup != nil && req.ID != "" {
		first, err := d.opts.Dedup.Claim(ctx, req.ID)
		switch {
		case err != nil:
			log.Warn("email dedup unavailable, sending anyway", zap.Error(err))
		case !first:
			log.Debug("email already sent, skipping")
			return
		}
	}

	content, err := d.renderer.Render(req.TemplateID, req.Context)
	if err != nil {
		log.Error("email render failed", zap.Error(err))
		d.release(ctx, req.ID)
		return
	}
	msg := Message{ID: req.ID, From: d.opts.From, To: req.To, Subject: req.Subject, Content: content}
	if err := d.transport.Send(ctx, msg); err != nil {
		log.Warn("email send failed", zap.Error(err))
		d.release(ctx, req.ID)
		return
	}
	log.Debug("email sent")
}

func (d *Dispatcher) release(ctx context.Context, id string) {
	if d.opts.Dedup == nil || id == "" {
		return
	}
	if err := d.opts.Dedup.Release(context.WithoutCancel(ctx), id); err != nil {
		d.log.Debug("email dedup release failed", zap.String("notification_id", id), zap.Error(err))
	}
}
