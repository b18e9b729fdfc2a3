package orders

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
	"github.com/gokul1818/foodOrderAdmin/internal/metrics"
)

// Watcher turns "order document added after initial load" events into
// notifications. The initial batch is discarded wholesale — pre-existing
// orders are not news — and modified/removed changes are not notified by
// policy: a change to an existing order is not a "new order" event.
type Watcher struct {
	watcher  domain.CollectionWatcher
	notifier domain.Notifier
}

func NewWatcher(watcher domain.CollectionWatcher, notifier domain.Notifier) *Watcher {
	return &Watcher{watcher: watcher, notifier: notifier}
}

// Subscription is one active order watch for a single tenant.
type Subscription struct {
	tenantID  string
	handle    domain.WatchHandle
	closeOnce sync.Once
	done      chan struct{}
}

// TenantID is the tenant this subscription is scoped to.
func (s *Subscription) TenantID() string {
	return s.tenantID
}

// Close cancels the subscription and waits for the pump to drain. Idempotent.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.handle.Close()
		<-s.done
	})
}

// Watch subscribes to the tenant's orders collection and notifies once per
// qualifying added change. The caller owns the returned subscription and must
// Close it before starting a watch for another tenant.
func (w *Watcher) Watch(ctx context.Context, tenantID string) (*Subscription, error) {
	handle, err := w.watcher.Watch(ctx, domain.OrdersCollection(tenantID))
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		tenantID: tenantID,
		handle:   handle,
		done:     make(chan struct{}),
	}
	go w.pump(ctx, s)

	slog.Info("Order watch started", "tenant_id", tenantID)
	return s, nil
}

func (w *Watcher) pump(ctx context.Context, s *Subscription) {
	defer close(s.done)

	for batch := range s.handle.Batches() {
		if batch.Initial {
			slog.Debug("Skipping initial order snapshot", "tenant_id", s.tenantID, "docs", len(batch.Changes))
			continue
		}

		for _, change := range batch.Changes {
			if change.Kind != domain.ChangeAdded {
				continue
			}

			order, err := domain.ParseOrder(change.Doc)
			if err != nil {
				slog.Warn("Skipping malformed order document", "tenant_id", s.tenantID, "doc_id", change.Doc.ID, "error", err)
				continue
			}

			metrics.OrderEventsTotal.Inc()
			slog.Info("New order", "tenant_id", s.tenantID, "order_id", order.OrderID)
			w.notifier.Notify(ctx, domain.Event{OrderID: order.OrderID, TenantID: s.tenantID})
		}
	}
}
