package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
)

// fakePlatform scripts the OS notification surface and counts interactions.
type fakePlatform struct {
	mu sync.Mutex

	supported  bool
	permission Permission
	grantTo    Permission

	permissionReads int
	requests        int
	shown           []DesktopNotification

	// requestGate, when set, blocks RequestPermission until released.
	requestGate chan struct{}
}

func newFakePlatform(permission Permission) *fakePlatform {
	return &fakePlatform{supported: true, permission: permission, grantTo: permission}
}

func (p *fakePlatform) Supported() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.supported
}

func (p *fakePlatform) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.permissionReads++
	return p.permission
}

func (p *fakePlatform) RequestPermission(_ context.Context) (Permission, error) {
	p.mu.Lock()
	p.requests++
	gate := p.requestGate
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.permission = p.grantTo
	return p.grantTo, nil
}

func (p *fakePlatform) Show(n DesktopNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, n)
	return nil
}

func (p *fakePlatform) shownCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shown)
}

func (p *fakePlatform) stats() (reads, requests int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permissionReads, p.requests
}

func TestDesktopNotifier_GrantedShowsImmediately(t *testing.T) {
	platform := newFakePlatform(PermissionGranted)
	notifier := NewDesktopNotifier(platform, "icon.png", "/orders", nil)

	notifier.Notify(context.Background(), domain.Event{OrderID: "order-1"})

	require.Equal(t, 1, platform.shownCount())
	platform.mu.Lock()
	shown := platform.shown[0]
	platform.mu.Unlock()
	assert.Equal(t, "New Order", shown.Title)
	assert.Equal(t, "Order ID: order-1", shown.Body)
	assert.Equal(t, "icon.png", shown.Icon)
}

func TestDesktopNotifier_PermissionReadPerNotify(t *testing.T) {
	platform := newFakePlatform(PermissionGranted)
	notifier := NewDesktopNotifier(platform, "", "/orders", nil)

	for i := 0; i < 3; i++ {
		notifier.Notify(context.Background(), domain.Event{OrderID: "order-1"})
	}

	reads, _ := platform.stats()
	assert.Equal(t, 3, reads)
}

func TestDesktopNotifier_DeniedNeverShows(t *testing.T) {
	platform := newFakePlatform(PermissionDenied)
	notifier := NewDesktopNotifier(platform, "", "/orders", nil)

	notifier.Notify(context.Background(), domain.Event{OrderID: "order-1"})

	assert.Equal(t, 0, platform.shownCount())
	_, requests := platform.stats()
	assert.Equal(t, 0, requests)
}

func TestDesktopNotifier_UnsupportedPlatformDegrades(t *testing.T) {
	platform := newFakePlatform(PermissionGranted)
	platform.supported = false
	notifier := NewDesktopNotifier(platform, "", "/orders", nil)

	notifier.Notify(context.Background(), domain.Event{OrderID: "order-1"})

	assert.Equal(t, 0, platform.shownCount())
	reads, _ := platform.stats()
	assert.Equal(t, 0, reads)
}

func TestDesktopNotifier_DefaultRequestsThenShowsRetroactively(t *testing.T) {
	platform := newFakePlatform(PermissionDefault)
	platform.grantTo = PermissionGranted
	notifier := NewDesktopNotifier(platform, "", "/orders", nil)

	notifier.Notify(context.Background(), domain.Event{OrderID: "order-1"})

	require.Eventually(t, func() bool {
		return platform.shownCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, requests := platform.stats()
	assert.Equal(t, 1, requests)
}

func TestDesktopNotifier_DefaultDeniedStaysSilent(t *testing.T) {
	platform := newFakePlatform(PermissionDefault)
	platform.grantTo = PermissionDenied
	notifier := NewDesktopNotifier(platform, "", "/orders", nil)

	notifier.Notify(context.Background(), domain.Event{OrderID: "order-1"})

	require.Eventually(t, func() bool {
		_, requests := platform.stats()
		return requests == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, platform.shownCount())
}

func TestDesktopNotifier_ConcurrentRequestsCollapse(t *testing.T) {
	platform := newFakePlatform(PermissionDefault)
	platform.grantTo = PermissionGranted
	platform.requestGate = make(chan struct{})
	notifier := NewDesktopNotifier(platform, "", "/orders", nil)

	ctx := context.Background()
	notifier.Notify(ctx, domain.Event{OrderID: "order-1"})
	notifier.Notify(ctx, domain.Event{OrderID: "order-2"})
	notifier.Notify(ctx, domain.Event{OrderID: "order-3"})

	// Wait until a prompt is in flight, give the remaining goroutines time to
	// join it, then release.
	require.Eventually(t, func() bool {
		_, requests := platform.stats()
		return requests >= 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(platform.requestGate)

	// Every event shows, but the platform was prompted once.
	require.Eventually(t, func() bool {
		return platform.shownCount() == 3
	}, 2*time.Second, 10*time.Millisecond)

	_, requests := platform.stats()
	assert.Equal(t, 1, requests)
}

func TestDesktopNotifier_ActivationNavigatesToOrders(t *testing.T) {
	platform := newFakePlatform(PermissionGranted)

	var navigated string
	notifier := NewDesktopNotifier(platform, "", "/orders", func(route string) {
		navigated = route
	})

	notifier.Notify(context.Background(), domain.Event{OrderID: "order-1"})

	require.Equal(t, 1, platform.shownCount())
	platform.mu.Lock()
	onActivate := platform.shown[0].OnActivate
	platform.mu.Unlock()

	require.NotNil(t, onActivate)
	onActivate()
	assert.Equal(t, "/orders", navigated)
}
