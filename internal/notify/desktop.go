package notify

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
	"github.com/gokul1818/foodOrderAdmin/internal/metrics"
)

// Permission is the platform notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// DesktopNotification is what the platform is asked to display. OnActivate
// fires when the user clicks the notification.
type DesktopNotification struct {
	Title      string
	Body       string
	Icon       string
	OnActivate func()
}

// Platform is the OS notification surface. Permission must report the live
// platform state on every call.
type Platform interface {
	Supported() bool
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Show(n DesktopNotification) error
}

// DesktopNotifier shows OS-level notifications for new orders. Permission is
// re-checked at every call, never cached: "granted" shows immediately,
// "default" triggers an asynchronous permission request and shows the same
// event retroactively if the user grants it, "denied" degrades silently to a
// log line. Activating a notification navigates the console to the orders view.
type DesktopNotifier struct {
	platform    Platform
	icon        string
	ordersRoute string
	navigate    func(route string)

	// requests collapses concurrent permission prompts into one.
	requests singleflight.Group
}

func NewDesktopNotifier(platform Platform, icon, ordersRoute string, navigate func(route string)) *DesktopNotifier {
	return &DesktopNotifier{
		platform:    platform,
		icon:        icon,
		ordersRoute: ordersRoute,
		navigate:    navigate,
	}
}

func (d *DesktopNotifier) Notify(ctx context.Context, event domain.Event) {
	if !d.platform.Supported() {
		slog.Info("Desktop notifications not available on this platform", "order_id", event.OrderID)
		metrics.NotificationsTotal.WithLabelValues("desktop", "unsupported").Inc()
		return
	}

	switch d.platform.Permission() {
	case PermissionGranted:
		d.show(event)
	case PermissionDenied:
		slog.Info("Desktop notifications denied by the user", "order_id", event.OrderID)
		metrics.NotificationsTotal.WithLabelValues("desktop", "denied").Inc()
	default:
		go d.requestAndShow(ctx, event)
	}
}

// requestAndShow asks for permission and, if granted, shows the notification
// retroactively for the event that triggered the request. Concurrent callers
// share one platform prompt but each shows its own event.
func (d *DesktopNotifier) requestAndShow(ctx context.Context, event domain.Event) {
	result, err, _ := d.requests.Do("permission", func() (any, error) {
		return d.platform.RequestPermission(ctx)
	})
	if err != nil {
		slog.Warn("Desktop permission request failed", "order_id", event.OrderID, "error", err)
		metrics.NotificationsTotal.WithLabelValues("desktop", "error").Inc()
		return
	}

	if result.(Permission) != PermissionGranted {
		slog.Info("Desktop notifications denied by the user", "order_id", event.OrderID)
		metrics.NotificationsTotal.WithLabelValues("desktop", "denied").Inc()
		return
	}

	d.show(event)
}

func (d *DesktopNotifier) show(event domain.Event) {
	n := DesktopNotification{
		Title: "New Order",
		Body:  fmt.Sprintf("Order ID: %s", event.OrderID),
		Icon:  d.icon,
		OnActivate: func() {
			if d.navigate != nil {
				d.navigate(d.ordersRoute)
			}
		},
	}

	if err := d.platform.Show(n); err != nil {
		slog.Warn("Failed to show desktop notification", "order_id", event.OrderID, "error", err)
		metrics.NotificationsTotal.WithLabelValues("desktop", "error").Inc()
		return
	}
	metrics.NotificationsTotal.WithLabelValues("desktop", "ok").Inc()
}
