package audio

import (
	"context"
	"errors"

	"github.com/et-diagnostics/vibrascope/internal/monitoring"
)

// ErrUnavailable reports that no capture device exists or permission was
// denied. It is recoverable: the engine keeps its last-known acoustic
// fields rather than failing the frame.
var ErrUnavailable = errors.New("audio unavailable")

// Source supplies raw PCM. ReadPCM fills buf completely or returns an
// error; a Source that cannot open its device returns ErrUnavailable.
type Source interface {
	ReadPCM(ctx context.Context, buf []int16) error
}

// Pump continuously fills fixed-size buffers from a Source on its own
// execution context and publishes each complete buffer to the mailbox.
type Pump struct {
	source  Source
	mailbox *Mailbox
	size    int
}

// NewPump creates a Pump producing buffers of the given size.
func NewPump(source Source, mailbox *Mailbox, size int) *Pump {
	return &Pump{source: source, mailbox: mailbox, size: size}
}

// Run captures until the context is canceled. Only complete buffers are
// published; a failed read abandons the partial buffer. An unavailable
// source ends the pump and the engine carries on without audio.
func (p *Pump) Run(ctx context.Context) error {
	buf := make([]int16, p.size)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.source.ReadPCM(ctx, buf); err != nil {
			if errors.Is(err, ErrUnavailable) {
				monitoring.Logf("audio: capture unavailable, acoustic fields will hold last known values")
				return err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			monitoring.Logf("audio: read failed, dropping partial buffer: %v", err)
			continue
		}
		p.mailbox.Publish(buf)
	}
}
