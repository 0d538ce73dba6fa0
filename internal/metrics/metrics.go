// Package metrics exports measurement progress and echo traffic to Prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tkjaer/ulat/internal/shared"
)

// Metrics is an output that mirrors client progress into Prometheus metrics
type Metrics struct {
	probesTarget   prometheus.Gauge
	probesSent     prometheus.Counter
	probesReceived prometheus.Counter
	latencyMin     prometheus.Gauge
	latencyAvg     prometheus.Gauge
	latencyMax     prometheus.Gauge
	packetLoss     prometheus.Gauge

	mu       sync.Mutex
	sent     uint64
	received uint64
}

// NewMetrics registers the client metrics for one destination with reg.
func NewMetrics(reg prometheus.Registerer, destination string) *Metrics {
	labels := prometheus.Labels{"destination": destination}
	factory := promauto.With(reg)

	return &Metrics{
		probesTarget: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "ulat_probes_target",
			Help:        "Number of probes the run will send (0 = unbounded)",
			ConstLabels: labels,
		}),
		probesSent: factory.NewCounter(prometheus.CounterOpts{
			Name:        "ulat_probes_sent_total",
			Help:        "Total number of probes sent",
			ConstLabels: labels,
		}),
		probesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name:        "ulat_probes_received_total",
			Help:        "Total number of echoes matched to a probe",
			ConstLabels: labels,
		}),
		latencyMin: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "ulat_latency_min_ms",
			Help:        "Minimum round-trip time in milliseconds",
			ConstLabels: labels,
		}),
		latencyAvg: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "ulat_latency_avg_ms",
			Help:        "Average round-trip time in milliseconds",
			ConstLabels: labels,
		}),
		latencyMax: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "ulat_latency_max_ms",
			Help:        "Maximum round-trip time in milliseconds",
			ConstLabels: labels,
		}),
		packetLoss: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "ulat_packet_loss_ratio",
			Help:        "Share of sent probes without an echo (0-1)",
			ConstLabels: labels,
		}),
	}
}

func (m *Metrics) SetTotal(total uint64) {
	m.probesTarget.Set(float64(total))
}

func (m *Metrics) UpdateSent(sent uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Progress is cumulative; counters only take the increase
	if sent > m.sent {
		m.probesSent.Add(float64(sent - m.sent))
		m.sent = sent
	}
	m.updateLoss()
}

func (m *Metrics) UpdateReceived(received uint64, min, avg, max time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if received > m.received {
		m.probesReceived.Add(float64(received - m.received))
		m.received = received
	}
	m.latencyMin.Set(toMillis(min))
	m.latencyAvg.Set(toMillis(avg))
	m.latencyMax.Set(toMillis(max))
	m.updateLoss()
}

func (m *Metrics) Complete(summary *shared.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if summary.Sent > m.sent {
		m.probesSent.Add(float64(summary.Sent - m.sent))
		m.sent = summary.Sent
	}
	if summary.Received > m.received {
		m.probesReceived.Add(float64(summary.Received - m.received))
		m.received = summary.Received
	}
	m.packetLoss.Set(summary.LossPct / 100)
}

func (m *Metrics) Close() error {
	return nil
}

// updateLoss must be called with m.mu held
func (m *Metrics) updateLoss() {
	if m.sent == 0 || m.received >= m.sent {
		m.packetLoss.Set(0)
		return
	}
	m.packetLoss.Set(float64(m.sent-m.received) / float64(m.sent))
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
