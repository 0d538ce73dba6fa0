package latency

import (
	"testing"
	"time"
)

func TestStatistics_Record(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name      string
		latencies []time.Duration
		wantMin   time.Duration
		wantAvg   time.Duration
		wantMax   time.Duration
	}{
		{"single", []time.Duration{7 * ms}, 7 * ms, 7 * ms, 7 * ms},
		{"ascending", []time.Duration{10 * ms, 20 * ms, 30 * ms}, 10 * ms, 20 * ms, 30 * ms},
		{"descending", []time.Duration{30 * ms, 20 * ms, 10 * ms}, 10 * ms, 20 * ms, 30 * ms},
		{"shuffled", []time.Duration{20 * ms, 30 * ms, 10 * ms}, 10 * ms, 20 * ms, 30 * ms},
		{"equal", []time.Duration{5 * ms, 5 * ms, 5 * ms, 5 * ms}, 5 * ms, 5 * ms, 5 * ms},
		{"sub-millisecond", []time.Duration{100 * time.Microsecond, 300 * time.Microsecond}, 100 * time.Microsecond, 200 * time.Microsecond, 300 * time.Microsecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Statistics
			for range tt.latencies {
				s.RecordSent()
			}
			for _, l := range tt.latencies {
				s.Record(l)
			}

			if s.Min != tt.wantMin || s.Avg != tt.wantAvg || s.Max != tt.wantMax {
				t.Errorf("min/avg/max = %v/%v/%v, want %v/%v/%v", s.Min, s.Avg, s.Max, tt.wantMin, tt.wantAvg, tt.wantMax)
			}
			if s.Received != uint64(len(tt.latencies)) || s.Outstanding != 0 {
				t.Errorf("received=%d outstanding=%d, want %d and 0", s.Received, s.Outstanding, len(tt.latencies))
			}
			if !(s.Min <= s.Avg && s.Avg <= s.Max) {
				t.Errorf("min <= avg <= max violated: %v %v %v", s.Min, s.Avg, s.Max)
			}
		})
	}
}

func TestStatistics_OutstandingNeverUnderflows(t *testing.T) {
	var s Statistics
	s.Record(time.Millisecond)
	if s.Outstanding != 0 || s.Received != 1 {
		t.Errorf("received=%d outstanding=%d, want 1 and 0", s.Received, s.Outstanding)
	}
}

func TestStatistics_LossPercent(t *testing.T) {
	tests := []struct {
		sent, received uint64
		want           float64
	}{
		{0, 0, 0},
		{10, 10, 0},
		{10, 0, 100},
		{4, 3, 25},
		{200, 199, 0.5},
	}

	for _, tt := range tests {
		s := Statistics{Received: tt.received}
		if got := s.LossPercent(tt.sent); got != tt.want {
			t.Errorf("LossPercent(sent=%d, received=%d) = %v, want %v", tt.sent, tt.received, got, tt.want)
		}
	}
}
