package latency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPacketSize = 64
	DefaultInterval   = 20 * time.Millisecond
	DefaultGrace      = 500 * time.Millisecond

	// MaxPacketSize is the largest UDP payload that fits in an IPv4 datagram.
	MaxPacketSize = 65507
)

var (
	ErrPacketTooSmall     = fmt.Errorf("packet size must be at least %d bytes", SequenceSize)
	ErrPacketTooLarge     = fmt.Errorf("packet size must be at most %d bytes", MaxPacketSize)
	ErrInvalidDestination = errors.New("invalid destination address")
	ErrInvalidInterval    = errors.New("interval must be positive")
	ErrAlreadyRun         = errors.New("measurement already run")
)

// Config is the immutable configuration of a measurement run.
type Config struct {
	Destination netip.AddrPort
	ClientPort  uint16 // 0 picks an ephemeral port

	PacketSize int
	Interval   time.Duration
	Count      uint64 // 0 runs until stopped

	// Grace is how long the receiver keeps waiting for echoes once the
	// sender has finished. It is re-armed after every received datagram.
	Grace time.Duration
}

// Validate rejects configurations that cannot produce a valid run.
func (c Config) Validate() error {
	switch {
	case !c.Destination.IsValid() || c.Destination.Port() == 0:
		return ErrInvalidDestination
	case c.PacketSize < SequenceSize:
		return ErrPacketTooSmall
	case c.PacketSize > MaxPacketSize:
		return ErrPacketTooLarge
	case c.Interval <= 0:
		return ErrInvalidInterval
	}
	return nil
}

// Latency measures UDP round-trip latency against an echo responder.
type Latency struct {
	config Config

	state  *State
	clock  Clock
	notify *notifier

	stop     chan struct{}
	stopOnce sync.Once
	ran      atomic.Bool
}

// NewLatency validates the configuration and prepares a run. Progress events
// are delivered on events, which is closed once the run has finished and
// every event was delivered. The caller must keep draining it until then.
// A nil channel disables notifications.
func NewLatency(c Config, events chan<- Event) (*Latency, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Grace <= 0 {
		c.Grace = DefaultGrace
	}
	c.Destination = netip.AddrPortFrom(c.Destination.Addr().Unmap(), c.Destination.Port())

	return &Latency{
		config: c,
		state:  NewState(c.Count),
		notify: newNotifier(events),
		stop:   make(chan struct{}),
	}, nil
}

// Config returns the run configuration
func (l *Latency) Config() Config {
	return l.config
}

// State returns the live shared state of the run
func (l *Latency) State() *State {
	return l.state
}

// Stop asks the sender to finish. The receiver keeps draining echoes for the
// grace window afterwards. Calling Stop more than once has no further effect.
func (l *Latency) Stop() {
	l.stopOnce.Do(func() {
		slog.Debug("Stopping latency measurement")
		close(l.stop)
	})
}

func (l *Latency) stopRequested() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

// Run binds the local socket and runs the sender and receiver until the
// target count is reached or the run is stopped, then waits out the grace
// window. Cancelling ctx is equivalent to calling Stop.
//
// The returned Result holds whatever was gathered, also when an I/O error
// ended the run early. A run with Count 0 only ends through Stop or ctx.
func (l *Latency) Run(ctx context.Context) (Result, error) {
	if !l.ran.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRun
	}
	defer l.notify.close()

	network := "udp4"
	if l.config.Destination.Addr().Is6() {
		network = "udp6"
	}

	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, network, net.JoinHostPort("", strconv.Itoa(int(l.config.ClientPort))))
	if err != nil {
		l.state.markStopped()
		return l.state.Snapshot(), fmt.Errorf("bind client port %d: %w", l.config.ClientPort, err)
	}
	defer conn.Close()

	slog.Debug("Starting latency measurement",
		"destination", l.config.Destination.String(),
		"local", conn.LocalAddr().String(),
		"count", l.config.Count,
		"interval", l.config.Interval,
		"packet_size", l.config.PacketSize,
	)

	if l.config.Count > 0 {
		l.notify.notify(Event{Kind: KindTotalTarget, Count: l.config.Count})
	}

	stopOnCancel := context.AfterFunc(ctx, l.Stop)
	defer stopOnCancel()

	// Workers only get cancelled by each other's failure; caller
	// cancellation goes through Stop so the receiver still drains.
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))

	dst := net.UDPAddrFromAddrPort(l.config.Destination)
	l.clock = NewClock()

	g.Go(func() error {
		return l.sendProbes(gctx, conn, dst)
	})
	g.Go(func() error {
		return l.receiveProbes(gctx, conn)
	})

	err = g.Wait()
	l.state.markStopped()

	result := l.state.Snapshot()
	result.Started = l.clock.Start()
	result.Duration = l.clock.Since()

	slog.Debug("Latency measurement finished",
		"sent", result.Sent,
		"received", result.Received,
		"duration", result.Duration,
	)

	return result, err
}
