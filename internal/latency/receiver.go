package latency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"
)

// receiveProbes matches echoes against the ledger until the sender has
// finished and no datagram arrived within the grace window.
func (l *Latency) receiveProbes(ctx context.Context, conn net.PacketConn) error {
	buf := make([]byte, MaxDatagramSize)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(l.config.Grace)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}

		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				if l.state.ShouldStop() {
					slog.Debug("Grace window elapsed, stopping receiver")
					return nil
				}
				if ctx.Err() != nil {
					return nil
				}
				continue
			}
			return fmt.Errorf("receive echo: %w", err)
		}
		at := l.clock.Since()

		seq, err := DecodeSequence(buf[:n])
		if err != nil {
			slog.Debug("Discarding malformed echo", "from", from.String(), "size", n, "error", err)
			continue
		}

		stats, err := l.state.Receive(seq, at)
		if err != nil {
			slog.Debug("Discarding echo", "from", from.String(), "seq", seq, "error", err)
			continue
		}

		l.notify.notify(Event{
			Kind:  KindReceivedProgress,
			Count: stats.Received,
			Min:   stats.Min,
			Avg:   stats.Avg,
			Max:   stats.Max,
		})
	}
}
