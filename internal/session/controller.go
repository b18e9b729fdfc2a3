package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gokul1818/foodOrderAdmin/internal/auth"
	"github.com/gokul1818/foodOrderAdmin/internal/domain"
	"github.com/gokul1818/foodOrderAdmin/internal/metrics"
	"github.com/gokul1818/foodOrderAdmin/internal/orders"
	"github.com/gokul1818/foodOrderAdmin/internal/tenant"
)

// State is the derived session state published to the view layer and the
// external state sink.
type State struct {
	SignedIn     bool   `json:"signedIn"`
	Loading      bool   `json:"loading"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
	TenantID     string `json:"tenantId"`
}

// --- Commands ---

type controllerCmd interface{ isControllerCmd() }

type baseControllerCmd struct{}

func (baseControllerCmd) isControllerCmd() {}

type authChangedCmd struct {
	baseControllerCmd
	identity *domain.Identity
}

type scopeResolvedCmd struct {
	baseControllerCmd
	scope domain.TenantScope
	epoch uint64
}

type bootstrapSelectCmd struct {
	baseControllerCmd
	tenantID string
	epoch    uint64
}

type selectTenantCmd struct {
	baseControllerCmd
	tenantID string
	errCh    chan error
}

type getStateCmd struct {
	baseControllerCmd
	replyCh chan State
}

type stopCmd struct {
	baseControllerCmd
}

// Controller is the top-level orchestrator: it owns the auth subscription,
// the tenant watch, and the order watch, and re-wires them whenever identity
// or tenant scope changes. All state lives in a single goroutine draining the
// command channel; the active-tenant and subscription-handle slots have no
// other writer.
//
// Events from independent subscriptions interleave arbitrarily; epoch counters
// tag the tenant watch so events from a superseded watch are dropped instead
// of corrupting the current scope. A stray order notification for a
// just-superseded tenant is accepted as benign.
type Controller struct {
	authSession *auth.Session
	resolver    *tenant.Resolver
	orders      *orders.Watcher
	sink        domain.StateSink

	cmdCh   chan controllerCmd
	closing chan struct{}
	done    chan struct{}

	// Owned by the run loop.
	ctx         context.Context
	st          State
	identity    *domain.Identity
	selected    string
	tenantEpoch uint64
	tenantSub   *tenant.Subscription
	orderSub    *orders.Subscription

	authHandle *auth.Handle
	stopOnce   sync.Once
}

func NewController(authSession *auth.Session, resolver *tenant.Resolver, orderWatcher *orders.Watcher, sink domain.StateSink) *Controller {
	return &Controller{
		authSession: authSession,
		resolver:    resolver,
		orders:      orderWatcher,
		sink:        sink,
		cmdCh:       make(chan controllerCmd, 64),
		closing:     make(chan struct{}),
		done:        make(chan struct{}),
		st:          State{Loading: true},
	}
}

// Start runs the controller loop and subscribes to auth state changes. The
// state stays Loading until the auth provider fires its first event.
func (c *Controller) Start(ctx context.Context) error {
	c.ctx = ctx
	go c.run()

	handle, err := c.authSession.Subscribe(ctx, func(identity *domain.Identity) {
		c.send(authChangedCmd{identity: identity})
	})
	if err != nil {
		c.Stop()
		return err
	}
	c.authHandle = handle
	return nil
}

// Stop cancels every active watch and the auth subscription. Idempotent.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.closing)
		c.cmdCh <- stopCmd{}
		<-c.done
		if c.authHandle != nil {
			c.authHandle.Close()
		}
	})
}

// State returns a snapshot of the derived session state. The reply wait also
// watches done: a command that raced shutdown into the buffered channel is
// never drained, and the caller must not hang on it.
func (c *Controller) State() State {
	replyCh := make(chan State, 1)
	select {
	case c.cmdCh <- getStateCmd{replyCh: replyCh}:
		select {
		case st := <-replyCh:
			return st
		case <-c.done:
			return State{}
		}
	case <-c.done:
		return State{}
	}
}

// SelectTenant switches the active tenant. Only a signed-in super-admin may
// select; everyone else is pinned to their own tenant.
func (c *Controller) SelectTenant(tenantID string) error {
	errCh := make(chan error, 1)
	select {
	case c.cmdCh <- selectTenantCmd{tenantID: tenantID, errCh: errCh}:
		select {
		case err := <-errCh:
			return err
		case <-c.done:
			return domain.ErrNotSignedIn
		}
	case <-c.done:
		return domain.ErrNotSignedIn
	}
}

// send delivers a command unless the controller is shutting down. Producers
// (auth callback, watch forwarders) use this so they can never wedge against
// a stopped loop.
func (c *Controller) send(cmd controllerCmd) {
	select {
	case c.cmdCh <- cmd:
	case <-c.closing:
	}
}

func (c *Controller) run() {
	defer close(c.done)

	for cmd := range c.cmdCh {
		switch cmd := cmd.(type) {
		case authChangedCmd:
			c.handleAuthChanged(cmd.identity)
		case scopeResolvedCmd:
			c.handleScopeResolved(cmd.scope, cmd.epoch)
		case bootstrapSelectCmd:
			c.handleBootstrapSelect(cmd.tenantID, cmd.epoch)
		case selectTenantCmd:
			cmd.errCh <- c.handleSelectTenant(cmd.tenantID)
		case getStateCmd:
			cmd.replyCh <- c.st
		case stopCmd:
			c.closeWatches()
			return
		}
	}
}

func (c *Controller) handleAuthChanged(identity *domain.Identity) {
	c.identity = identity

	if identity == nil {
		slog.Info("Signed out, cancelling watches")
		c.closeWatches()
		c.selected = ""
		c.st = State{SignedIn: false, Loading: false}
		metrics.SessionTransitionsTotal.WithLabelValues("unauthenticated").Inc()
		c.publishState()
		c.publishTenantRecords(nil)
		return
	}

	slog.Info("Signed in", "identity_id", identity.ID, "super_admin", identity.IsSuperAdmin)

	c.selected = ""
	if !identity.IsSuperAdmin {
		c.selected = identity.ID
	}
	c.st = State{SignedIn: true, Loading: false, IsSuperAdmin: identity.IsSuperAdmin, TenantID: c.selected}
	metrics.SessionTransitionsTotal.WithLabelValues("authenticated").Inc()

	c.restartTenantWatch()
	if c.selected != "" {
		c.restartOrderWatch(c.selected)
	}
	c.publishState()
}

func (c *Controller) handleScopeResolved(scope domain.TenantScope, epoch uint64) {
	if epoch != c.tenantEpoch || c.identity == nil {
		return
	}

	c.publishTenantRecords(scope.Tenants)

	if scope.TenantID != "" && (c.orderSub == nil || c.orderSub.TenantID() != scope.TenantID) {
		c.restartOrderWatch(scope.TenantID)
	}
	if scope.TenantID != c.st.TenantID {
		c.st.TenantID = scope.TenantID
		c.publishState()
	}
}

func (c *Controller) handleBootstrapSelect(tenantID string, epoch uint64) {
	if epoch != c.tenantEpoch || c.identity == nil || !c.identity.IsSuperAdmin {
		return
	}
	if c.selected != "" {
		return
	}

	c.applySelection(tenantID)
}

func (c *Controller) handleSelectTenant(tenantID string) error {
	if c.identity == nil {
		return domain.ErrNotSignedIn
	}
	if !c.identity.IsSuperAdmin {
		return domain.ErrNotSuperAdmin
	}
	if tenantID == c.selected {
		return nil
	}

	c.applySelection(tenantID)
	return nil
}

func (c *Controller) applySelection(tenantID string) {
	c.selected = tenantID
	c.st.TenantID = tenantID

	c.restartTenantWatch()
	c.restartOrderWatch(tenantID)
	c.publishState()
}

// restartTenantWatch replaces the hotels watch with one scoped to the current
// identity and selection. The prior subscription is cancelled first so only
// one watch is live; its epoch goes stale so in-flight events are dropped.
func (c *Controller) restartTenantWatch() {
	if c.tenantSub != nil {
		c.tenantSub.Close()
		c.tenantSub = nil
	}
	c.tenantEpoch++
	epoch := c.tenantEpoch

	scope := tenant.Scope{Identity: *c.identity, SelectedTenantID: c.selected}
	sub, err := c.resolver.Watch(c.ctx, scope, func(tenantID string) {
		c.send(bootstrapSelectCmd{tenantID: tenantID, epoch: epoch})
	})
	if err != nil {
		slog.Error("Failed to watch tenants", "error", err)
		return
	}
	c.tenantSub = sub

	go func() {
		for resolved := range sub.Scopes() {
			c.send(scopeResolvedCmd{scope: resolved, epoch: epoch})
		}
	}()
}

// restartOrderWatch cancels the current order watch before establishing the
// new one, so no duplicate subscription exists and nothing leaks across
// tenants.
func (c *Controller) restartOrderWatch(tenantID string) {
	if c.orderSub != nil {
		if c.orderSub.TenantID() == tenantID {
			return
		}
		c.orderSub.Close()
		c.orderSub = nil
		metrics.TenantSwitchesTotal.Inc()
	}

	sub, err := c.orders.Watch(c.ctx, tenantID)
	if err != nil {
		slog.Error("Failed to watch orders", "tenant_id", tenantID, "error", err)
		return
	}
	c.orderSub = sub
}

func (c *Controller) closeWatches() {
	if c.tenantSub != nil {
		c.tenantSub.Close()
		c.tenantSub = nil
	}
	if c.orderSub != nil {
		c.orderSub.Close()
		c.orderSub = nil
	}
	c.tenantEpoch++
}

func (c *Controller) publishState() {
	if err := c.sink.SetSuperAdmin(c.ctx, c.st.IsSuperAdmin); err != nil {
		slog.Error("Failed to publish super admin flag", "error", err)
	}
	if err := c.sink.SetActiveTenant(c.ctx, c.st.TenantID); err != nil {
		slog.Error("Failed to publish active tenant", "error", err)
	}
}

func (c *Controller) publishTenantRecords(tenants []domain.Tenant) {
	if err := c.sink.SetTenantRecords(c.ctx, tenants); err != nil {
		slog.Error("Failed to publish tenant records", "error", err)
	}
}
