package notify

import (
	"context"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
)

// Channel fans one event out to the delivery channels in priority order:
// in-app toast, audio cue, desktop notification. Each attempt is independent —
// a failure in one never blocks the others — and none of them surfaces errors
// to the caller.
type Channel struct {
	channels []domain.Notifier
}

func NewChannel(toast, sound, desktop domain.Notifier) *Channel {
	c := &Channel{}
	for _, n := range []domain.Notifier{toast, sound, desktop} {
		if n != nil {
			c.channels = append(c.channels, n)
		}
	}
	return c
}

func (c *Channel) Notify(ctx context.Context, event domain.Event) {
	for _, n := range c.channels {
		n.Notify(ctx, event)
	}
}
