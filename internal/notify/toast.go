package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
	"github.com/gokul1818/foodOrderAdmin/internal/metrics"
)

// Toast is one in-app notification shown by the console shell.
type Toast struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Style   string    `json:"style"`
	ShownAt time.Time `json:"shownAt"`
}

// ToastEvent tells the shell to show or hide a toast.
type ToastEvent struct {
	Type  string `json:"type"` // "shown" or "dismissed"
	Toast Toast  `json:"toast"`
}

const (
	ToastShown     = "shown"
	ToastDismissed = "dismissed"

	styleSuccess = "success"
)

// ToastCenter owns the in-app toast channel: each notification becomes a
// success-styled toast that auto-dismisses after a fixed delay unless the
// user dismisses it first. Events are pushed to the sink callback, which the
// gateway fans out to connected shells.
type ToastCenter struct {
	clock       clockwork.Clock
	autoDismiss time.Duration
	onEvent     func(ToastEvent)

	mu     sync.Mutex
	active map[string]*toastEntry
}

type toastEntry struct {
	toast Toast
	timer clockwork.Timer
}

func NewToastCenter(clock clockwork.Clock, autoDismiss time.Duration, onEvent func(ToastEvent)) *ToastCenter {
	return &ToastCenter{
		clock:       clock,
		autoDismiss: autoDismiss,
		onEvent:     onEvent,
		active:      make(map[string]*toastEntry),
	}
}

// Notify shows a toast for a new order.
func (t *ToastCenter) Notify(_ context.Context, event domain.Event) {
	toast := Toast{
		ID:      uuid.NewString(),
		Message: fmt.Sprintf("New Order: %s", event.OrderID),
		Style:   styleSuccess,
		ShownAt: t.clock.Now(),
	}

	t.mu.Lock()
	entry := &toastEntry{toast: toast}
	entry.timer = t.clock.AfterFunc(t.autoDismiss, func() {
		t.Dismiss(toast.ID)
	})
	t.active[toast.ID] = entry
	t.mu.Unlock()

	metrics.ToastsActive.Inc()
	metrics.NotificationsTotal.WithLabelValues("toast", "ok").Inc()
	t.emit(ToastEvent{Type: ToastShown, Toast: toast})
}

// Dismiss hides a toast early (user interaction) or on timer expiry.
// Dismissing an unknown or already-dismissed toast is a no-op.
func (t *ToastCenter) Dismiss(id string) {
	t.mu.Lock()
	entry, ok := t.active[id]
	if ok {
		entry.timer.Stop()
		delete(t.active, id)
	}
	t.mu.Unlock()

	if !ok {
		return
	}

	metrics.ToastsActive.Dec()
	t.emit(ToastEvent{Type: ToastDismissed, Toast: entry.toast})
}

// Active returns the toasts currently displayed, for shells that connect
// mid-flight.
func (t *ToastCenter) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Toast, 0, len(t.active))
	for _, entry := range t.active {
		out = append(out, entry.toast)
	}
	return out
}

func (t *ToastCenter) emit(event ToastEvent) {
	if t.onEvent != nil {
		t.onEvent(event)
	}
}
