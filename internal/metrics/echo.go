package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EchoMetrics counts traffic reflected by the echo responder
type EchoMetrics struct {
	packets prometheus.Counter
	bytes   prometheus.Counter
	peers   prometheus.Gauge
}

func NewEchoMetrics(reg prometheus.Registerer) *EchoMetrics {
	factory := promauto.With(reg)

	return &EchoMetrics{
		packets: factory.NewCounter(prometheus.CounterOpts{
			Name: "ulat_echo_packets_total",
			Help: "Total number of datagrams echoed",
		}),
		bytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "ulat_echo_bytes_total",
			Help: "Total number of payload bytes echoed",
		}),
		peers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ulat_echo_peers",
			Help: "Number of sources seen within the peer TTL",
		}),
	}
}

func (e *EchoMetrics) ObserveEcho(bytes int) {
	e.packets.Inc()
	e.bytes.Add(float64(bytes))
}

func (e *EchoMetrics) ObservePeers(active int) {
	e.peers.Set(float64(active))
}
