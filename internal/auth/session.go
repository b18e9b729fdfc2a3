package auth

import (
	"context"
	"sync"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
)

// Session wraps the auth provider's state-change stream behind a callback
// subscription. The callback fires once immediately with the current identity
// (or nil) and again on every sign-in/sign-out, always from a single
// goroutine — never concurrently with itself.
type Session struct {
	provider domain.AuthProvider
}

func NewSession(provider domain.AuthProvider) *Session {
	return &Session{provider: provider}
}

// Handle cancels an active auth subscription. Close releases all provider
// resources and is safe to call multiple times.
type Handle struct {
	stream    domain.AuthStream
	closeOnce sync.Once
	done      chan struct{}
}

// Close cancels the subscription and waits for any in-flight callback to
// return.
func (h *Handle) Close() {
	h.closeOnce.Do(func() {
		h.stream.Close()
		<-h.done
	})
}

// Subscribe starts delivering identity changes to onChange.
func (s *Session) Subscribe(ctx context.Context, onChange func(*domain.Identity)) (*Handle, error) {
	stream, err := s.provider.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	h := &Handle{stream: stream, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		for identity := range stream.Identities() {
			onChange(identity)
		}
	}()
	return h, nil
}
