package latency

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// sendProbes transmits one probe per interval tick. Each probe's ledger slot
// is created before the datagram leaves, so an echo can never arrive for a
// sequence number the receiver does not know about. Ticks missed while
// sending are dropped, not caught up.
func (l *Latency) sendProbes(ctx context.Context, conn net.PacketConn, dst net.Addr) error {
	buf := newPayload(l.config.PacketSize)

	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	for {
		seq, sent := l.state.AppendSent(l.clock.Since())
		if err := EncodeSequence(buf, seq); err != nil {
			l.state.Stop()
			return err
		}

		if _, err := conn.WriteTo(buf, dst); err != nil {
			l.state.Stop()
			return fmt.Errorf("send probe %d: %w", seq, err)
		}

		l.notify.notify(Event{Kind: KindSentProgress, Count: sent})

		if l.stopRequested() || (l.config.Count > 0 && sent >= l.config.Count) {
			l.state.Stop()
			slog.Debug("Sender finished", "sent", sent)
			return nil
		}

		select {
		case <-ticker.C:
		case <-l.stop:
			l.state.Stop()
			slog.Debug("Sender stopped", "sent", sent)
			return nil
		case <-ctx.Done():
			// The receiver failed, its error is the one reported
			l.state.Stop()
			return nil
		}
	}
}
