package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
)

// fakeWatcher serves scripted batches per watch.
type fakeWatcher struct {
	mu      sync.Mutex
	handles []*fakeHandle
}

func (w *fakeWatcher) Watch(_ context.Context, collection string) (domain.WatchHandle, error) {
	if collection != domain.HotelsCollection {
		return nil, fmt.Errorf("unexpected collection %q", collection)
	}
	h := &fakeHandle{ch: make(chan domain.ChangeBatch, 16)}
	w.mu.Lock()
	w.handles = append(w.handles, h)
	w.mu.Unlock()
	return h, nil
}

func (w *fakeWatcher) push(batch domain.ChangeBatch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range w.handles {
		h.send(batch)
	}
}

type fakeHandle struct {
	mu     sync.Mutex
	ch     chan domain.ChangeBatch
	closed bool
}

func (h *fakeHandle) Batches() <-chan domain.ChangeBatch { return h.ch }

func (h *fakeHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.ch)
	}
}

func (h *fakeHandle) send(batch domain.ChangeBatch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.ch <- batch
	}
}

func tenantDoc(id, name string) domain.Document {
	data, _ := json.Marshal(map[string]string{"tenantId": id, "name": name})
	return domain.Document{ID: id, Data: data}
}

func addedBatch(initial bool, docs ...domain.Document) domain.ChangeBatch {
	batch := domain.ChangeBatch{Initial: initial}
	for _, doc := range docs {
		batch.Changes = append(batch.Changes, domain.Change{Kind: domain.ChangeAdded, Doc: doc})
	}
	return batch
}

func nextScope(t *testing.T, sub *Subscription) domain.TenantScope {
	t.Helper()
	select {
	case scope, ok := <-sub.Scopes():
		require.True(t, ok, "scope channel closed unexpectedly")
		return scope
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scope")
		return domain.TenantScope{}
	}
}

func TestResolve_RegularUserSeesOwnTenantOnly(t *testing.T) {
	tenants := []domain.Tenant{
		{TenantID: "u1", Name: "Hotel One"},
		{TenantID: "u2", Name: "Hotel Two"},
	}

	scope := Resolve(domain.Identity{ID: "u1"}, "", tenants)
	assert.Equal(t, "u1", scope.TenantID)
	require.Len(t, scope.Tenants, 1)
	assert.Equal(t, "Hotel One", scope.Tenants[0].Name)

	scope = Resolve(domain.Identity{ID: "u2"}, "", tenants)
	assert.Equal(t, "u2", scope.TenantID)
	require.Len(t, scope.Tenants, 1)
	assert.Equal(t, "Hotel Two", scope.Tenants[0].Name)
}

func TestResolve_RegularUserIgnoresSelection(t *testing.T) {
	tenants := []domain.Tenant{{TenantID: "u1"}, {TenantID: "u2"}}

	scope := Resolve(domain.Identity{ID: "u1"}, "u2", tenants)
	assert.Equal(t, "u1", scope.TenantID)
	require.Len(t, scope.Tenants, 1)
	assert.Equal(t, "u1", scope.Tenants[0].TenantID)
}

func TestResolve_SuperAdminFollowsSelection(t *testing.T) {
	tenants := []domain.Tenant{{TenantID: "hA"}, {TenantID: "hB"}}
	admin := domain.Identity{ID: "admin-1", IsSuperAdmin: true}

	scope := Resolve(admin, "hB", tenants)
	assert.Equal(t, "hB", scope.TenantID)
	require.Len(t, scope.Tenants, 1)
	assert.Equal(t, "hB", scope.Tenants[0].TenantID)
}

func TestResolve_NoMatchIsEmptyNotError(t *testing.T) {
	scope := Resolve(domain.Identity{ID: "u9"}, "", []domain.Tenant{{TenantID: "u1"}})
	assert.Equal(t, "u9", scope.TenantID)
	assert.Empty(t, scope.Tenants)
}

func TestResolve_Deterministic(t *testing.T) {
	tenants := []domain.Tenant{{TenantID: "u1"}, {TenantID: "u2"}}
	identity := domain.Identity{ID: "u1"}

	first := Resolve(identity, "", tenants)
	second := Resolve(identity, "", tenants)
	assert.Equal(t, first, second)
}

func TestWatch_EmitsResolvedScopePerUpdate(t *testing.T) {
	watcher := &fakeWatcher{}
	resolver := NewResolver(watcher)

	sub, err := resolver.Watch(context.Background(), Scope{Identity: domain.Identity{ID: "u1"}}, nil)
	require.NoError(t, err)
	defer sub.Close()

	watcher.push(addedBatch(true, tenantDoc("u1", "Hotel One"), tenantDoc("u2", "Hotel Two")))
	scope := nextScope(t, sub)
	assert.Equal(t, "u1", scope.TenantID)
	require.Len(t, scope.Tenants, 1)
	assert.Equal(t, "Hotel One", scope.Tenants[0].Name)

	// A rename of the user's own hotel flows through.
	watcher.push(domain.ChangeBatch{Changes: []domain.Change{
		{Kind: domain.ChangeModified, Doc: tenantDoc("u1", "Hotel One Renamed")},
	}})
	scope = nextScope(t, sub)
	require.Len(t, scope.Tenants, 1)
	assert.Equal(t, "Hotel One Renamed", scope.Tenants[0].Name)
}

func TestWatch_RemovalShrinksScope(t *testing.T) {
	watcher := &fakeWatcher{}
	resolver := NewResolver(watcher)

	sub, err := resolver.Watch(context.Background(), Scope{Identity: domain.Identity{ID: "u1"}}, nil)
	require.NoError(t, err)
	defer sub.Close()

	watcher.push(addedBatch(true, tenantDoc("u1", "Hotel One")))
	require.Len(t, nextScope(t, sub).Tenants, 1)

	watcher.push(domain.ChangeBatch{Changes: []domain.Change{
		{Kind: domain.ChangeRemoved, Doc: domain.Document{ID: "u1"}},
	}})
	assert.Empty(t, nextScope(t, sub).Tenants)
}

func TestWatch_SuperAdminBootstrapFiresOnceWithFirstTenant(t *testing.T) {
	watcher := &fakeWatcher{}
	resolver := NewResolver(watcher)
	admin := domain.Identity{ID: "admin-1", IsSuperAdmin: true}

	var mu sync.Mutex
	var bootstraps []string
	sub, err := resolver.Watch(context.Background(), Scope{Identity: admin}, func(tenantID string) {
		mu.Lock()
		bootstraps = append(bootstraps, tenantID)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Close()

	watcher.push(addedBatch(true, tenantDoc("hA", "Alpha"), tenantDoc("hB", "Beta")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(bootstraps) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"hA"}, bootstraps)
	mu.Unlock()

	// Later updates emit scopes instead of bootstrapping again.
	watcher.push(domain.ChangeBatch{Changes: []domain.Change{
		{Kind: domain.ChangeAdded, Doc: tenantDoc("hC", "Gamma")},
	}})
	nextScope(t, sub)

	mu.Lock()
	assert.Len(t, bootstraps, 1)
	mu.Unlock()
}

func TestWatch_SuperAdminNoBootstrapWhileEmpty(t *testing.T) {
	watcher := &fakeWatcher{}
	resolver := NewResolver(watcher)
	admin := domain.Identity{ID: "admin-1", IsSuperAdmin: true}

	bootstrapped := make(chan string, 1)
	sub, err := resolver.Watch(context.Background(), Scope{Identity: admin}, func(tenantID string) {
		bootstrapped <- tenantID
	})
	require.NoError(t, err)
	defer sub.Close()

	// Empty store: a scope is emitted, no bootstrap.
	watcher.push(addedBatch(true))
	scope := nextScope(t, sub)
	assert.Empty(t, scope.Tenants)
	assert.Empty(t, bootstrapped)

	// First tenant appearing triggers the deferred bootstrap.
	watcher.push(domain.ChangeBatch{Changes: []domain.Change{
		{Kind: domain.ChangeAdded, Doc: tenantDoc("hA", "Alpha")},
	}})
	select {
	case id := <-bootstrapped:
		assert.Equal(t, "hA", id)
	case <-time.After(2 * time.Second):
		t.Fatal("bootstrap never fired")
	}
}

func TestWatch_SuperAdminWithSelectionSkipsBootstrap(t *testing.T) {
	watcher := &fakeWatcher{}
	resolver := NewResolver(watcher)
	admin := domain.Identity{ID: "admin-1", IsSuperAdmin: true}

	sub, err := resolver.Watch(context.Background(), Scope{Identity: admin, SelectedTenantID: "hB"}, func(string) {
		t.Error("bootstrap must not fire when a selection exists")
	})
	require.NoError(t, err)
	defer sub.Close()

	watcher.push(addedBatch(true, tenantDoc("hA", "Alpha"), tenantDoc("hB", "Beta")))
	scope := nextScope(t, sub)
	assert.Equal(t, "hB", scope.TenantID)
	require.Len(t, scope.Tenants, 1)
	assert.Equal(t, "Beta", scope.Tenants[0].TenantID)
}

func TestWatch_SkipsMalformedTenantDocuments(t *testing.T) {
	watcher := &fakeWatcher{}
	resolver := NewResolver(watcher)

	sub, err := resolver.Watch(context.Background(), Scope{Identity: domain.Identity{ID: "u1"}}, nil)
	require.NoError(t, err)
	defer sub.Close()

	watcher.push(domain.ChangeBatch{Initial: true, Changes: []domain.Change{
		{Kind: domain.ChangeAdded, Doc: domain.Document{ID: "broken", Data: json.RawMessage("not json")}},
		{Kind: domain.ChangeAdded, Doc: tenantDoc("u1", "Hotel One")},
	}})

	scope := nextScope(t, sub)
	require.Len(t, scope.Tenants, 1)
	assert.Equal(t, "u1", scope.Tenants[0].TenantID)
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	watcher := &fakeWatcher{}
	resolver := NewResolver(watcher)

	sub, err := resolver.Watch(context.Background(), Scope{Identity: domain.Identity{ID: "u1"}}, nil)
	require.NoError(t, err)

	sub.Close()
	sub.Close()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Scopes():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
