package tenant

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
)

// Scope is the input of tenant resolution: who is signed in and, for a
// super-admin, which tenant they have selected.
type Scope struct {
	Identity         domain.Identity
	SelectedTenantID string
}

// Resolver derives the active tenant scope from a live view of the hotels
// collection. A watch is restartable: Close followed by Watch yields a fresh
// initial scope for the new inputs.
type Resolver struct {
	watcher domain.CollectionWatcher
}

func NewResolver(watcher domain.CollectionWatcher) *Resolver {
	return &Resolver{watcher: watcher}
}

// Resolve is the pure resolution function: given identical inputs it yields an
// identical tenant sequence. A regular user sees exactly the tenant matching
// their identity; a super-admin sees the tenant matching their selection. Zero
// matches means "tenant not yet provisioned", not a fault.
func Resolve(identity domain.Identity, selectedTenantID string, tenants []domain.Tenant) domain.TenantScope {
	target := identity.ID
	if identity.IsSuperAdmin {
		target = selectedTenantID
	}

	scope := domain.TenantScope{TenantID: target}
	for _, t := range tenants {
		if t.TenantID == target {
			scope.Tenants = append(scope.Tenants, t)
		}
	}
	return scope
}

// Subscription is one active tenant watch.
type Subscription struct {
	handle    domain.WatchHandle
	ch        chan domain.TenantScope
	closeOnce sync.Once
}

// Scopes delivers one TenantScope per hotels-collection update. The channel
// closes when the subscription ends.
func (s *Subscription) Scopes() <-chan domain.TenantScope {
	return s.ch
}

// Close cancels the underlying collection watch. Idempotent.
func (s *Subscription) Close() {
	s.closeOnce.Do(s.handle.Close)
}

// Watch subscribes to the hotels collection and emits a resolved TenantScope
// per update. When a super-admin has no selection yet, onBootstrap fires once
// with the first tenant's id instead of emitting a scope — the caller is
// expected to set the selection and restart the watch.
func (r *Resolver) Watch(ctx context.Context, scope Scope, onBootstrap func(tenantID string)) (*Subscription, error) {
	handle, err := r.watcher.Watch(ctx, domain.HotelsCollection)
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		handle: handle,
		ch:     make(chan domain.TenantScope, 4),
	}
	go s.pump(ctx, scope, onBootstrap)
	return s, nil
}

func (s *Subscription) pump(ctx context.Context, scope Scope, onBootstrap func(tenantID string)) {
	defer close(s.ch)

	var view materializedView
	bootstrapped := false

	for batch := range s.handle.Batches() {
		view.apply(batch)
		tenants := view.tenants()

		needsBootstrap := scope.Identity.IsSuperAdmin && scope.SelectedTenantID == "" && !bootstrapped
		if needsBootstrap && len(tenants) > 0 {
			bootstrapped = true
			slog.Info("Bootstrapping tenant selection", "tenant_id", tenants[0].TenantID)
			if onBootstrap != nil {
				onBootstrap(tenants[0].TenantID)
			}
			continue
		}

		resolved := Resolve(scope.Identity, scope.SelectedTenantID, tenants)
		select {
		case s.ch <- resolved:
		case <-ctx.Done():
			return
		}
	}
}

// materializedView keeps the tenant documents in store order across change
// batches: the initial set first, later additions appended.
type materializedView struct {
	order []string
	docs  map[string]domain.Tenant
}

func (v *materializedView) apply(batch domain.ChangeBatch) {
	if v.docs == nil {
		v.docs = make(map[string]domain.Tenant)
	}

	for _, change := range batch.Changes {
		switch change.Kind {
		case domain.ChangeAdded, domain.ChangeModified:
			t, err := domain.ParseTenant(change.Doc)
			if err != nil {
				slog.Warn("Skipping malformed tenant document", "doc_id", change.Doc.ID, "error", err)
				continue
			}
			if _, exists := v.docs[change.Doc.ID]; !exists {
				v.order = append(v.order, change.Doc.ID)
			}
			v.docs[change.Doc.ID] = t
		case domain.ChangeRemoved:
			if _, exists := v.docs[change.Doc.ID]; !exists {
				continue
			}
			delete(v.docs, change.Doc.ID)
			for i, id := range v.order {
				if id == change.Doc.ID {
					v.order = append(v.order[:i], v.order[i+1:]...)
					break
				}
			}
		}
	}
}

func (v *materializedView) tenants() []domain.Tenant {
	out := make([]domain.Tenant, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.docs[id])
	}
	return out
}
