package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
	"github.com/gokul1818/foodOrderAdmin/internal/metrics"
)

// Watcher implements domain.CollectionWatcher on top of the redis-backed
// document store. No subscription exists until Watch is called; every call
// starts a fresh initial-batch sequence.
type Watcher struct {
	rdb *goredis.Client
}

func NewWatcher(rdb *goredis.Client) *Watcher {
	return &Watcher{rdb: rdb}
}

// Subscription is one active collection watch. The first batch on Batches()
// is tagged Initial and carries the full document set sorted by document id
// (the store order); every later batch carries exactly one change.
type Subscription struct {
	collection string
	sub        *goredis.PubSub
	ch         chan domain.ChangeBatch
	cancel     context.CancelFunc
	closeOnce  sync.Once

	// known tracks document ids already delivered, so a change event that
	// raced the initial snapshot read is reclassified instead of duplicated.
	known map[string]struct{}
}

func (s *Subscription) Batches() <-chan domain.ChangeBatch {
	return s.ch
}

// Close cancels the remote subscription. Idempotent; the batch channel is
// closed once the pump goroutine exits.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.sub.Close()
	})
}

// Watch subscribes to a collection's change stream. The Pub/Sub subscription
// is established before the snapshot read, so no change published in between
// is lost; changes that are already part of the snapshot are deduplicated.
func (w *Watcher) Watch(ctx context.Context, collection string) (domain.WatchHandle, error) {
	sub := w.rdb.Subscribe(ctx, changesChannel(collection))

	// Force the SUBSCRIBE round trip so the stream is live before the snapshot.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	docs, err := w.rdb.HGetAll(ctx, docsKey(collection)).Result()
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		collection: collection,
		sub:        sub,
		ch:         make(chan domain.ChangeBatch, 16),
		cancel:     cancel,
		known:      make(map[string]struct{}, len(docs)),
	}

	initial := domain.ChangeBatch{Initial: true, Changes: make([]domain.Change, 0, len(docs))}
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		initial.Changes = append(initial.Changes, domain.Change{
			Kind: domain.ChangeAdded,
			Doc:  domain.Document{ID: id, Data: json.RawMessage(docs[id])},
		})
		s.known[id] = struct{}{}
	}

	metrics.WatchesActive.Inc()
	go s.pump(subCtx, initial)

	slog.Debug("Collection watch established", "collection", collection, "initial_docs", len(docs))
	return s, nil
}

func (s *Subscription) pump(ctx context.Context, initial domain.ChangeBatch) {
	defer close(s.ch)
	defer metrics.WatchesActive.Dec()

	if !s.deliver(ctx, initial) {
		return
	}

	msgCh := s.sub.Channel()
	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			batch, ok := s.decode(msg.Payload)
			if !ok {
				continue
			}
			if !s.deliver(ctx, batch) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// deliver blocks until the consumer takes the batch; per-subscription ordering
// is part of the contract, so batches are never reordered or dropped.
func (s *Subscription) deliver(ctx context.Context, batch domain.ChangeBatch) bool {
	select {
	case s.ch <- batch:
		phase := "incremental"
		if batch.Initial {
			phase = "initial"
		}
		metrics.WatchBatchesTotal.WithLabelValues(collectionKind(s.collection), phase).Inc()
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Subscription) decode(payload string) (domain.ChangeBatch, bool) {
	var msg changeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		slog.Warn("Failed to unmarshal change event", "collection", s.collection, "error", err)
		metrics.WatchDecodeErrorsTotal.Inc()
		return domain.ChangeBatch{}, false
	}

	kind := msg.Kind
	switch kind {
	case domain.ChangeAdded:
		if _, seen := s.known[msg.ID]; seen {
			// Raced the snapshot read: the document was already delivered
			// in the initial batch.
			kind = domain.ChangeModified
		}
		s.known[msg.ID] = struct{}{}
	case domain.ChangeModified:
		s.known[msg.ID] = struct{}{}
	case domain.ChangeRemoved:
		delete(s.known, msg.ID)
	default:
		slog.Warn("Unknown change kind", "collection", s.collection, "kind", string(msg.Kind))
		return domain.ChangeBatch{}, false
	}

	return domain.ChangeBatch{
		Changes: []domain.Change{{Kind: kind, Doc: domain.Document{ID: msg.ID, Data: msg.Data}}},
	}, true
}

func collectionKind(collection string) string {
	switch {
	case collection == domain.HotelsCollection:
		return "hotels"
	case strings.HasPrefix(collection, "orders-"):
		return "orders"
	default:
		return "other"
	}
}
