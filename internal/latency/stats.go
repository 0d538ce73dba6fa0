package latency

import (
	"math"
	"time"
)

// Statistics keeps running aggregates over matched echoes without holding on
// to individual samples.
type Statistics struct {
	Received    uint64
	Outstanding uint64 // sent but not (yet) matched

	Min time.Duration
	Max time.Duration
	Avg time.Duration
}

// RecordSent accounts for a probe that has been sent but not yet answered.
func (s *Statistics) RecordSent() {
	s.Outstanding++
}

// Record folds one matched latency into the aggregates.
func (s *Statistics) Record(latency time.Duration) {
	n := float64(s.Received)

	// Cumulative mean: avg = avg * (n / (n + 1)) + latency / (n + 1)
	avg := float64(s.Avg)*(n/(n+1)) + float64(latency)/(n+1)
	s.Avg = time.Duration(math.Round(avg))

	if s.Received == 0 {
		s.Min = latency
		s.Max = latency
	} else {
		if latency < s.Min {
			s.Min = latency
		}
		if latency > s.Max {
			s.Max = latency
		}
	}

	s.Received++
	if s.Outstanding > 0 {
		s.Outstanding--
	}
}

// LossPercent returns the share of sent probes without an echo. It is 0 when
// nothing has been sent.
func (s *Statistics) LossPercent(sent uint64) float64 {
	return lossPercent(sent, s.Received)
}

func lossPercent(sent, received uint64) float64 {
	if sent == 0 || received >= sent {
		return 0
	}
	return float64(sent-received) / float64(sent) * 100
}
