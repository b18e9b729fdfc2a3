package notify

import (
	"context"
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
	"github.com/gokul1818/foodOrderAdmin/internal/metrics"
)

// SoundPlayer plays the short audio cue. Playback is fire-and-forget and
// failures are silently ignored beyond a debug log.
type SoundPlayer struct {
	play func() error
}

func NewSoundPlayer() *SoundPlayer {
	return &SoundPlayer{
		play: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
}

func (p *SoundPlayer) Notify(_ context.Context, event domain.Event) {
	go func() {
		if err := p.play(); err != nil {
			slog.Debug("Audio cue failed", "order_id", event.OrderID, "error", err)
			metrics.NotificationsTotal.WithLabelValues("sound", "error").Inc()
			return
		}
		metrics.NotificationsTotal.WithLabelValues("sound", "ok").Inc()
	}()
}
