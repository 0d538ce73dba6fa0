package latency

import (
	"sync"
	"time"
)

// State is the measurement state shared by the sender and receiver loops.
// All access goes through its methods, which hold the lock only for the
// read-modify-write itself and never across socket I/O.
type State struct {
	mu sync.Mutex

	ledger Ledger
	stats  Statistics

	shouldStop bool
	phase      Phase
}

// NewState returns an empty running state sized for count probes.
func NewState(count uint64) *State {
	return &State{
		ledger: newLedger(count),
		phase:  PhaseRunning,
	}
}

// AppendSent records a probe sent at the given time and returns its sequence
// number and the number of probes sent so far.
func (s *State) AppendSent(at time.Duration) (seq uint64, sent uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq = s.ledger.Append(at)
	s.stats.RecordSent()
	return seq, s.ledger.Len()
}

// Receive matches an echo for seq that arrived at the given time. On success
// it returns a copy of the updated statistics. Duplicate and unknown
// sequence numbers leave the state untouched.
func (s *State) Receive(seq uint64, at time.Duration) (Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latency, err := s.ledger.Match(seq, at)
	if err != nil {
		return s.stats, err
	}
	s.stats.Record(latency)
	return s.stats, nil
}

// Stop sets the stop flag and moves a running state to draining. It reports
// whether this call was the one that set the flag.
func (s *State) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shouldStop {
		return false
	}
	s.shouldStop = true
	if s.phase == PhaseRunning {
		s.phase = PhaseDraining
	}
	return true
}

// ShouldStop reports whether the sender has finished.
func (s *State) ShouldStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldStop
}

func (s *State) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldStop = true
	s.phase = PhaseStopped
}

// Phase returns the current shutdown phase
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Statistics returns a copy of the aggregates
func (s *State) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Sent returns the number of probes sent so far
func (s *State) Sent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Len()
}

// Snapshot returns an immutable copy of the state for reporting.
func (s *State) Snapshot() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Result{
		Sent:        s.ledger.Len(),
		Received:    s.stats.Received,
		Outstanding: s.stats.Outstanding,
		Min:         s.stats.Min,
		Avg:         s.stats.Avg,
		Max:         s.stats.Max,
		Records:     s.ledger.Records(),
	}
}

// Result is the final report of a measurement run.
type Result struct {
	Sent        uint64
	Received    uint64
	Outstanding uint64

	Min time.Duration
	Avg time.Duration
	Max time.Duration

	Records []ProbeRecord

	// Started is the wall-clock start of the run, Duration its length.
	Started  time.Time
	Duration time.Duration
}

// Lost returns the number of probes without an echo. Once a run has ended,
// every outstanding probe counts as lost.
func (r *Result) Lost() uint64 {
	return r.Outstanding
}

// LossPercent returns the loss as a percentage of probes sent, or 0 when
// nothing was sent.
func (r *Result) LossPercent() float64 {
	return lossPercent(r.Sent, r.Received)
}
