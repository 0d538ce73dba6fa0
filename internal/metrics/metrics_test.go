package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tkjaer/ulat/internal/output"
	"github.com/tkjaer/ulat/internal/shared"
)

var _ output.Output = (*Metrics)(nil)

func TestMetrics_Progress(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry, "192.0.2.10")

	m.SetTotal(100)
	m.UpdateSent(1)
	m.UpdateSent(2)
	m.UpdateSent(4)
	m.UpdateSent(3) // stale progress is ignored
	m.UpdateReceived(3, 500*time.Microsecond, time.Millisecond, 2*time.Millisecond)

	tests := []struct {
		name   string
		metric prometheus.Collector
		want   float64
	}{
		{"target", m.probesTarget, 100},
		{"sent", m.probesSent, 4},
		{"received", m.probesReceived, 3},
		{"min", m.latencyMin, 0.5},
		{"avg", m.latencyAvg, 1},
		{"max", m.latencyMax, 2},
		{"loss", m.packetLoss, 0.25},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.metric); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMetrics_Complete(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry, "192.0.2.10")

	m.UpdateSent(8)
	m.UpdateReceived(5, time.Millisecond, time.Millisecond, time.Millisecond)
	m.Complete(&shared.Summary{Sent: 10, Received: 6, LossPct: 40})

	if got := testutil.ToFloat64(m.probesSent); got != 10 {
		t.Errorf("sent = %v, want 10", got)
	}
	if got := testutil.ToFloat64(m.probesReceived); got != 6 {
		t.Errorf("received = %v, want 6", got)
	}
	if got := testutil.ToFloat64(m.packetLoss); got != 0.4 {
		t.Errorf("loss = %v, want 0.4", got)
	}
}

func TestMetrics_DestinationLabel(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry, "echo.example.net")
	m.UpdateSent(1)

	expected := `
# HELP ulat_probes_sent_total Total number of probes sent
# TYPE ulat_probes_sent_total counter
ulat_probes_sent_total{destination="echo.example.net"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "ulat_probes_sent_total"); err != nil {
		t.Error(err)
	}
}

func TestEchoMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	e := NewEchoMetrics(registry)

	e.ObserveEcho(64)
	e.ObserveEcho(1400)
	e.ObservePeers(2)
	e.ObservePeers(1)

	if got := testutil.ToFloat64(e.packets); got != 2 {
		t.Errorf("packets = %v, want 2", got)
	}
	if got := testutil.ToFloat64(e.bytes); got != 1464 {
		t.Errorf("bytes = %v, want 1464", got)
	}
	if got := testutil.ToFloat64(e.peers); got != 1 {
		t.Errorf("peers = %v, want 1", got)
	}
}

func TestServe(t *testing.T) {
	registry := prometheus.NewRegistry()
	e := NewEchoMetrics(registry)
	e.ObserveEcho(10)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, registry) }()

	resp, err := http.Get("http://" + ln.Addr().String() + metricsPath)
	if err != nil {
		t.Fatalf("GET %s error = %v", metricsPath, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ulat_echo_packets_total 1") {
		t.Errorf("GET %s = %d\n%s", metricsPath, resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve() did not return after cancel")
	}
}

func TestServe_BadAddress(t *testing.T) {
	if err := Serve(context.Background(), "not-an-address", prometheus.NewRegistry()); err == nil {
		t.Error("Serve() with a bad address returned nil")
	}
}
