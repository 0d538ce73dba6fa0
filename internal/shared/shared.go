package shared

import (
	"time"

	"github.com/tkjaer/ulat/internal/latency"
)

// OutputInfo describes a measurement for display and export
type OutputInfo struct {
	Destination    string // as given on the command line
	DestinationIP  string
	DestinationPTR string
	Port           uint16
	PacketSize     int
	Interval       time.Duration
	Count          uint64 // 0 = unbounded
}

// Holds the outcome of a single probe
type ProbeSample struct {
	Seq      uint64 `json:"seq"`
	Sent     int64  `json:"sent"`               // Send time in microseconds since run start
	Received *int64 `json:"received,omitempty"` // Receive time in microseconds, nil if lost
	Latency  *int64 `json:"latency,omitempty"`  // RTT in microseconds, nil if lost
}

// Summary is the final report of a measurement run
type Summary struct {
	Destination    string        `json:"destination"`
	DestinationIP  string        `json:"destination_ip"`
	DestinationPTR string        `json:"destination_ptr"`
	Port           uint16        `json:"port"`
	PacketSize     int           `json:"packet_size"`
	Interval       int64         `json:"interval"` // Interval in microseconds
	Sent           uint64        `json:"sent"`
	Received       uint64        `json:"received"`
	Lost           uint64        `json:"lost"`
	LossPct        float64       `json:"loss_pct"`
	Min            int64         `json:"min"`      // RTT in microseconds
	Avg            int64         `json:"avg"`      // RTT in microseconds
	Max            int64         `json:"max"`      // RTT in microseconds
	Duration       int64         `json:"duration"` // Run duration in microseconds
	Timestamp      time.Time     `json:"timestamp"`
	Probes         []ProbeSample `json:"probes"`
}

// NewSummary converts the result of a run into its exported form
func NewSummary(info OutputInfo, r *latency.Result) *Summary {
	s := &Summary{
		Destination:    info.Destination,
		DestinationIP:  info.DestinationIP,
		DestinationPTR: info.DestinationPTR,
		Port:           info.Port,
		PacketSize:     info.PacketSize,
		Interval:       info.Interval.Microseconds(),
		Sent:           r.Sent,
		Received:       r.Received,
		Lost:           r.Lost(),
		LossPct:        r.LossPercent(),
		Min:            r.Min.Microseconds(),
		Avg:            r.Avg.Microseconds(),
		Max:            r.Max.Microseconds(),
		Duration:       r.Duration.Microseconds(),
		Timestamp:      r.Started,
		Probes:         ProbeSamples(r.Records),
	}
	return s
}

// ProbeSamples converts ledger records to exported samples, one per sequence number
func ProbeSamples(records []latency.ProbeRecord) []ProbeSample {
	samples := make([]ProbeSample, len(records))
	for i, rec := range records {
		samples[i] = ProbeSample{
			Seq:  uint64(i),
			Sent: rec.SentAt.Microseconds(),
		}
		if rec.Received() {
			received := rec.ReceivedAt.Microseconds()
			rtt := rec.Latency.Microseconds()
			samples[i].Received = &received
			samples[i].Latency = &rtt
		}
	}
	return samples
}
