package output

import (
	"log/slog"
	"time"

	"github.com/tkjaer/ulat/internal/latency"
	"github.com/tkjaer/ulat/internal/shared"
)

// Output interface for different output types
type Output interface {
	SetTotal(total uint64)
	UpdateSent(sent uint64)
	UpdateReceived(received uint64, min, avg, max time.Duration)
	Complete(summary *shared.Summary)
	Close() error
}

// OutputManager manages multiple outputs
type OutputManager struct {
	outputs []Output
}

func (om *OutputManager) Register(o Output) {
	om.outputs = append(om.outputs, o)
}

func (om *OutputManager) SetTotal(total uint64) {
	for _, o := range om.outputs {
		o.SetTotal(total)
	}
}

func (om *OutputManager) UpdateSent(sent uint64) {
	for _, o := range om.outputs {
		o.UpdateSent(sent)
	}
}

func (om *OutputManager) UpdateReceived(received uint64, min, avg, max time.Duration) {
	for _, o := range om.outputs {
		o.UpdateReceived(received, min, avg, max)
	}
}

func (om *OutputManager) Complete(summary *shared.Summary) {
	for _, o := range om.outputs {
		o.Complete(summary)
	}
}

func (om *OutputManager) Close() {
	for _, o := range om.outputs {
		if err := o.Close(); err != nil {
			slog.Warn("Failed to close output", "error", err)
		}
	}
}

// Dispatch routes a single engine event to all outputs
func (om *OutputManager) Dispatch(e latency.Event) {
	switch e.Kind {
	case latency.KindTotalTarget:
		om.SetTotal(e.Count)
	case latency.KindSentProgress:
		om.UpdateSent(e.Count)
	case latency.KindReceivedProgress:
		om.UpdateReceived(e.Count, e.Min, e.Avg, e.Max)
	default:
		slog.Debug("Unknown latency event", "kind", e.Kind)
	}
}

// Run dispatches events until the channel is closed
func (om *OutputManager) Run(events <-chan latency.Event) {
	for e := range events {
		om.Dispatch(e)
	}
}
