package notify

import (
	"time"

	"github.com/gen2brain/beeep"

	"platewatch/internal/ports"
)

// Desktop delivers local desktop notifications. Fire-and-forget: the
// pipeline logs failures and moves on.
type Desktop struct{}

var _ ports.Notifier = (*Desktop)(nil)

// NewDesktop returns the desktop notifier.
func NewDesktop() *Desktop {
	return &Desktop{}
}

// Notify shows a transient notification. The timeout is advisory; not every
// desktop environment honors it.
func (d *Desktop) Notify(title, message string, _ time.Duration) error {
	return beeep.Notify(title, message, "")
}

// Noop discards notifications. Used on headless runners where no desktop
// session exists.
type Noop struct{}

var _ ports.Notifier = (*Noop)(nil)

// NewNoop returns the discarding notifier.
func NewNoop() *Noop {
	return &Noop{}
}

// Notify does nothing.
func (n *Noop) Notify(_, _ string, _ time.Duration) error {
	return nil
}
