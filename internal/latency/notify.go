package latency

import (
	"fmt"
	"sync"
	"time"
)

// EventKind identifies the kind of progress notification
type EventKind uint8

const (
	KindTotalTarget EventKind = iota
	KindSentProgress
	KindReceivedProgress
)

func (k EventKind) String() string {
	switch k {
	case KindTotalTarget:
		return "total_target"
	case KindSentProgress:
		return "sent_progress"
	case KindReceivedProgress:
		return "received_progress"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is a progress notification emitted by the engine. Min, Avg and Max
// are only set on KindReceivedProgress.
type Event struct {
	Kind  EventKind
	Count uint64

	Min time.Duration
	Avg time.Duration
	Max time.Duration
}

// notifier forwards events to an observer channel in order without ever
// blocking the caller of notify. Events queue up in memory while the
// observer is slow.
type notifier struct {
	out chan<- Event

	mu     sync.Mutex
	queue  []Event
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// newNotifier starts the delivery goroutine. A nil out channel yields a
// notifier that drops everything.
func newNotifier(out chan<- Event) *notifier {
	n := &notifier{
		out:  out,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	if out == nil {
		close(n.done)
		return n
	}
	go n.deliver()
	return n
}

func (n *notifier) notify(e Event) {
	if n.out == nil {
		return
	}
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.queue = append(n.queue, e)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// close stops accepting events. The observer channel is closed once the
// backlog has been delivered; wait blocks until then.
func (n *notifier) close() {
	if n.out == nil {
		return
	}
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) wait() {
	<-n.done
}

func (n *notifier) deliver() {
	defer close(n.done)
	defer close(n.out)

	for {
		n.mu.Lock()
		batch := n.queue
		n.queue = nil
		closed := n.closed
		n.mu.Unlock()

		for _, e := range batch {
			n.out <- e
		}

		if len(batch) == 0 {
			if closed {
				return
			}
			<-n.wake
		}
	}
}
