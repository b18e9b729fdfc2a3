package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
)

const (
	identityKey   = "auth:identity"
	eventsChannel = "auth:events"
)

// Provider is the redis binding of the remote auth provider: the current
// identity lives at a key, sign-in/sign-out events travel over Pub/Sub. An
// empty event payload means signed out.
type Provider struct {
	rdb    *goredis.Client
	policy *Policy
}

func NewProvider(rdb *goredis.Client, policy *Policy) *Provider {
	return &Provider{rdb: rdb, policy: policy}
}

// SignIn records the identity as current and broadcasts the change. The role
// flag is derived here so every consumer sees the same identity value.
func (p *Provider) SignIn(ctx context.Context, id string) error {
	identity := p.policy.Identify(id)
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	if err := p.rdb.Set(ctx, identityKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store identity: %w", err)
	}
	return p.rdb.Publish(ctx, eventsChannel, data).Err()
}

// SignOut clears the current identity and broadcasts the change.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.rdb.Del(ctx, identityKey).Err(); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return p.rdb.Publish(ctx, eventsChannel, "").Err()
}

// Current returns the signed-in identity, or nil when signed out.
func (p *Provider) Current(ctx context.Context) (*domain.Identity, error) {
	data, err := p.rdb.Get(ctx, identityKey).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read identity: %w", err)
	}
	return decodeIdentity(data), nil
}

// Subscribe opens the identity-change stream. The subscription is live before
// the current identity is read, so no sign-in racing the subscribe is lost;
// the stream fires once immediately with the current identity (or nil).
func (p *Provider) Subscribe(ctx context.Context) (domain.AuthStream, error) {
	sub := p.rdb.Subscribe(ctx, eventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	current, err := p.Current(ctx)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s := &stream{
		sub:    sub,
		ch:     make(chan *domain.Identity, 4),
		cancel: cancel,
	}
	go s.pump(streamCtx, current)
	return s, nil
}

type stream struct {
	sub       *goredis.PubSub
	ch        chan *domain.Identity
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (s *stream) Identities() <-chan *domain.Identity {
	return s.ch
}

func (s *stream) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.sub.Close()
	})
}

func (s *stream) pump(ctx context.Context, current *domain.Identity) {
	defer close(s.ch)

	if !s.deliver(ctx, current) {
		return
	}

	msgCh := s.sub.Channel()
	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			var identity *domain.Identity
			if msg.Payload != "" {
				identity = decodeIdentity(msg.Payload)
				if identity == nil {
					continue
				}
			}
			if !s.deliver(ctx, identity) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *stream) deliver(ctx context.Context, identity *domain.Identity) bool {
	select {
	case s.ch <- identity:
		return true
	case <-ctx.Done():
		return false
	}
}

func decodeIdentity(payload string) *domain.Identity {
	var identity domain.Identity
	if err := json.Unmarshal([]byte(payload), &identity); err != nil {
		slog.Warn("Failed to unmarshal identity event", "error", err)
		return nil
	}
	return &identity
}
