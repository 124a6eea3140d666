package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
	"github.com/sbpremium/gifts-backend/pkg/logger"
	"github.com/sbpremium/gifts-backend/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Dispatcher runs every configured notifier for each published event in the
// background. Failures are logged and counted, never returned to the caller.
type Dispatcher struct {
	notifiers []Notifier
	logg      *logger.Logger
	metrics   *metrics.Domain
	timeout   time.Duration
	now       func() time.Time

	wg sync.WaitGroup
}

func NewDispatcher(logg *logger.Logger, m *metrics.Domain, timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logg == nil {
		logg = logger.Nop()
	}
	active := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &Dispatcher{
		notifiers: active,
		logg:      logg,
		metrics:   m,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Channels lists the enabled channels.
func (d *Dispatcher) Channels() []string {
	out := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		out = append(out, string(n.Channel()))
	}
	return out
}

// Publish stamps the event and delivers it asynchronously. The request
// context's values are kept for logging but its cancellation is not.
func (d *Dispatcher) Publish(ctx context.Context, event Event) {
	if d == nil || len(d.notifiers) == 0 {
		return
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = d.now().UTC()
	}

	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.Deliver(bg, event); err != nil {
			logCtx := d.logg.WithFields(bg, map[string]any{
				"event_id":   event.ID.String(),
				"event_type": string(event.Type),
			})
			d.logg.Error(logCtx, "delivery.failed", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "delivery failed"))
		}
	}()
}

// Deliver runs all notifiers concurrently and returns their combined errors.
func (d *Dispatcher) Deliver(ctx context.Context, event Event) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, n := range d.notifiers {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			channel := string(n.Channel())
			if err := n.Notify(ctx, event); err != nil {
				d.metrics.IncDelivery(channel, "error")
				mu.Lock()
				errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, channel))
				mu.Unlock()
				return
			}
			d.metrics.IncDelivery(channel, "ok")
		}(n)
	}
	wg.Wait()
	return errs
}

// Wait blocks until every in-flight delivery finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
