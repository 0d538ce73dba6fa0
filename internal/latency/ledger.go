package latency

import (
	"errors"
	"time"
)

var (
	// ErrUnknownSequence is returned for an echo whose sequence number was never sent.
	ErrUnknownSequence = errors.New("sequence number out of range")
	// ErrDuplicateEcho is returned for an echo whose probe was already matched.
	ErrDuplicateEcho = errors.New("probe already received")
)

// ProbeStatus tracks whether a probe's echo has been observed
type ProbeStatus uint8

const (
	StatusSent ProbeStatus = iota
	StatusReceived
)

func (s ProbeStatus) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusReceived:
		return "received"
	default:
		return "unknown"
	}
}

// ProbeRecord is one slot in the ledger. ReceivedAt and Latency are only
// meaningful once Status is StatusReceived.
type ProbeRecord struct {
	Status     ProbeStatus
	SentAt     time.Duration
	ReceivedAt time.Duration
	Latency    time.Duration
}

// Received reports whether the echo for this probe was matched
func (r ProbeRecord) Received() bool {
	return r.Status == StatusReceived
}

// Ledger holds one record per probe, indexed by sequence number.
type Ledger struct {
	records []ProbeRecord
}

func newLedger(capacity uint64) Ledger {
	// Don't trust huge counts for preallocation
	const maxPrealloc = 1 << 16
	if capacity > maxPrealloc {
		capacity = maxPrealloc
	}
	return Ledger{records: make([]ProbeRecord, 0, capacity)}
}

// Len returns the number of probes sent, which is also the next sequence number
func (l *Ledger) Len() uint64 {
	return uint64(len(l.records))
}

// Append records a probe sent at the given time and returns its sequence number.
func (l *Ledger) Append(at time.Duration) uint64 {
	seq := uint64(len(l.records))
	l.records = append(l.records, ProbeRecord{Status: StatusSent, SentAt: at})
	return seq
}

// Match moves the slot for seq from sent to received and returns the
// round-trip latency. The ledger is left untouched on error.
func (l *Ledger) Match(seq uint64, at time.Duration) (time.Duration, error) {
	if seq >= uint64(len(l.records)) {
		return 0, ErrUnknownSequence
	}
	rec := &l.records[seq]
	if rec.Status != StatusSent {
		return 0, ErrDuplicateEcho
	}
	rec.Status = StatusReceived
	rec.ReceivedAt = at
	rec.Latency = at - rec.SentAt
	return rec.Latency, nil
}

// Records returns a copy of the ledger
func (l *Ledger) Records() []ProbeRecord {
	out := make([]ProbeRecord, len(l.records))
	copy(out, l.records)
	return out
}
