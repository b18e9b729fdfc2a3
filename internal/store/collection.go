package store

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
)

func docsKey(collection string) string {
	return "docs:" + collection
}

func changesChannel(collection string) string {
	return "changes:" + collection
}

// changeMessage is the wire format of one change event on the Pub/Sub channel.
type changeMessage struct {
	Kind domain.ChangeKind `json:"kind"`
	ID   string            `json:"id"`
	Data json.RawMessage   `json:"data,omitempty"`
}

// Collection is the producer side of the document store: it writes documents
// into a per-collection hash and publishes the corresponding change event so
// live watchers see it. The console runtime itself is only a consumer; this
// type exists for the admin surfaces and for tests driving real change flows.
type Collection struct {
	rdb *goredis.Client
}

func NewCollection(rdb *goredis.Client) *Collection {
	return &Collection{rdb: rdb}
}

// Put writes a document and publishes added or modified depending on whether
// the id already existed.
func (c *Collection) Put(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	exists, err := c.rdb.HExists(ctx, docsKey(collection), id).Result()
	if err != nil {
		return fmt.Errorf("failed to check document existence: %w", err)
	}

	kind := domain.ChangeAdded
	if exists {
		kind = domain.ChangeModified
	}

	if err := c.rdb.HSet(ctx, docsKey(collection), id, data).Err(); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	return c.publish(ctx, collection, changeMessage{Kind: kind, ID: id, Data: data})
}

// Remove deletes a document and publishes removed. Removing a missing document
// is a no-op.
func (c *Collection) Remove(ctx context.Context, collection, id string) error {
	data, err := c.rdb.HGet(ctx, docsKey(collection), id).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil
		}
		return fmt.Errorf("failed to read document: %w", err)
	}

	if err := c.rdb.HDel(ctx, docsKey(collection), id).Err(); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return c.publish(ctx, collection, changeMessage{Kind: domain.ChangeRemoved, ID: id, Data: json.RawMessage(data)})
}

// Get reads a single document.
func (c *Collection) Get(ctx context.Context, collection, id string) (domain.Document, error) {
	data, err := c.rdb.HGet(ctx, docsKey(collection), id).Result()
	if err != nil {
		if err == goredis.Nil {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return domain.Document{}, fmt.Errorf("failed to read document: %w", err)
	}
	return domain.Document{ID: id, Data: json.RawMessage(data)}, nil
}

func (c *Collection) publish(ctx context.Context, collection string, msg changeMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := c.rdb.Publish(ctx, changesChannel(collection), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}
