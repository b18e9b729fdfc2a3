package domain

import (
	"context"
	"encoding/json"
)

// --- Model types ---

// Identity is the signed-in staff user as reported by the auth provider.
// Immutable while valid; a nil *Identity means signed out.
type Identity struct {
	ID           string `json:"id"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

// Tenant is one hotel account — the unit of data isolation.
// Raw carries the full document so arbitrary metadata fields survive round trips.
type Tenant struct {
	TenantID string `json:"tenantId"`
	Name     string `json:"name,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Order is one order document. Equality for notification purposes is by
// OrderID, not by document id.
type Order struct {
	OrderID string `json:"orderID"`

	Raw json.RawMessage `json:"-"`
}

// TenantScope is the derived visibility of tenant data for the active session.
// Tenants is empty when no tenant document matches the resolved id — that is
// "tenant not yet provisioned", not a fault.
type TenantScope struct {
	TenantID string
	Tenants  []Tenant
}

// --- Change stream types ---

// ChangeKind classifies a single document change within a batch.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Document is a raw store document: store-assigned id plus JSON payload.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Change is one per-document change inside a batch.
type Change struct {
	Kind ChangeKind
	Doc  Document
}

// ChangeBatch is one delivery of a collection watch. Initial is true exactly
// once per subscription lifetime: the first emission, carrying the then-current
// full document set as added entries. Consumers performing notification must
// discard the initial batch entirely.
type ChangeBatch struct {
	Initial bool
	Changes []Change
}

// --- Ports ---

// WatchHandle is an active collection subscription. Close cancels the remote
// subscription and is safe to call multiple times; after Close the batch
// channel is closed and no further batches are delivered.
type WatchHandle interface {
	Batches() <-chan ChangeBatch
	Close()
}

// CollectionWatcher establishes live subscriptions against the remote store.
// No remote cost is incurred until Watch is called; re-watching after Close
// restarts the initial-batch sequence.
type CollectionWatcher interface {
	Watch(ctx context.Context, collection string) (WatchHandle, error)
}

// AuthStream delivers identity changes in order. A nil identity means signed
// out. The channel is closed when the stream is cancelled.
type AuthStream interface {
	Identities() <-chan *Identity
	Close()
}

// AuthProvider exposes the remote auth provider's state-change stream. The
// stream fires once immediately with the current identity (or nil).
type AuthProvider interface {
	Subscribe(ctx context.Context) (AuthStream, error)
}

// Event is one qualifying "new order" occurrence handed to the notification
// pipeline.
type Event struct {
	OrderID  string
	TenantID string
}

// Notifier delivers a notification event. Implementations are best-effort and
// never return delivery failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// StateSink receives the derived session state on every transition. The sink's
// own storage mechanics are outside this runtime.
type StateSink interface {
	SetSuperAdmin(ctx context.Context, superAdmin bool) error
	SetActiveTenant(ctx context.Context, tenantID string) error
	SetTenantRecords(ctx context.Context, tenants []Tenant) error
}

// ParseTenant decodes a tenant document, keeping the raw payload.
func ParseTenant(doc Document) (Tenant, error) {
	var t Tenant
	if err := json.Unmarshal(doc.Data, &t); err != nil {
		return Tenant{}, err
	}
	t.Raw = doc.Data
	return t, nil
}

// ParseOrder decodes an order document, keeping the raw payload.
func ParseOrder(doc Document) (Order, error) {
	var o Order
	if err := json.Unmarshal(doc.Data, &o); err != nil {
		return Order{}, err
	}
	o.Raw = doc.Data
	return o, nil
}

// OrdersCollection returns the collection path holding a tenant's orders.
func OrdersCollection(tenantID string) string {
	return "orders-" + tenantID
}

// HotelsCollection is the collection path holding tenant metadata.
const HotelsCollection = "hotels"
