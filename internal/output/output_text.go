package output

import (
	"fmt"
	"io"
	"time"

	"github.com/tkjaer/ulat/internal/shared"
)

// TextOutput prints a plain summary when the run is complete
type TextOutput struct {
	w io.Writer
}

func NewTextOutput(w io.Writer) *TextOutput {
	return &TextOutput{w: w}
}

func (t *TextOutput) SetTotal(total uint64) {}

func (t *TextOutput) UpdateSent(sent uint64) {}

func (t *TextOutput) UpdateReceived(received uint64, min, avg, max time.Duration) {}

func (t *TextOutput) Complete(s *shared.Summary) {
	target := s.Destination
	if s.DestinationPTR != "" && s.DestinationPTR != s.Destination {
		target = fmt.Sprintf("%s (%s)", s.Destination, s.DestinationPTR)
	}
	fmt.Fprintf(t.w, "--- %s port %d latency statistics ---\n", target, s.Port)
	if s.Received > 0 {
		fmt.Fprintf(t.w, "Min latency: %s\n", micros(s.Min))
		fmt.Fprintf(t.w, "Average latency: %s\n", micros(s.Avg))
		fmt.Fprintf(t.w, "Max latency: %s\n", micros(s.Max))
	}
	fmt.Fprintf(t.w, "Packet loss: %.2f%% (%d/%d)\n", s.LossPct, s.Lost, s.Sent)
}

func (t *TextOutput) Close() error {
	return nil
}

func micros(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
