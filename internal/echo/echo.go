// Package echo implements the UDP echo responder used as the far end of a
// latency measurement. It reflects every datagram back to its sender and
// never interprets the payload.
package echo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	// MaxDatagramSize bounds the receive buffer; larger datagrams are truncated.
	MaxDatagramSize = 65535

	DefaultPeerTTL = 5 * time.Minute
)

var ErrNotListening = errors.New("echo server is not listening")

// Observer is notified about echo traffic, e.g. to export metrics.
type Observer interface {
	ObserveEcho(bytes int)
	ObservePeers(active int)
}

type Config struct {
	Address string // empty binds all interfaces
	Port    uint16

	// PeerTTL is how long a silent source keeps its packet counter.
	PeerTTL time.Duration

	Observer Observer
}

// Server is a stateless UDP reflector. The only state kept is a per-source
// packet counter used for diagnostics.
type Server struct {
	config Config

	mu   sync.Mutex
	conn net.PacketConn

	peers *ttlcache.Cache[string, uint64]

	stop     chan struct{}
	stopOnce sync.Once
}

func NewServer(c Config) *Server {
	if c.PeerTTL <= 0 {
		c.PeerTTL = DefaultPeerTTL
	}

	s := &Server{
		config: c,
		peers:  ttlcache.New(ttlcache.WithTTL[string, uint64](c.PeerTTL)),
		stop:   make(chan struct{}),
	}
	s.peers.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, uint64]) {
		if reason == ttlcache.EvictionReasonExpired {
			slog.Debug("Peer idle, dropping counter", "peer", item.Key(), "packets", item.Value())
			s.observePeers()
		}
	})
	return s
}

// Listen binds the server socket.
func (s *Server) Listen(ctx context.Context) error {
	lc := listenConfig()
	addr := net.JoinHostPort(s.config.Address, strconv.Itoa(int(s.config.Port)))

	conn, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("bind echo port %d: %w", s.config.Port, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	slog.Info("Echo server listening", "address", conn.LocalAddr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Run listens and serves until ctx is cancelled or Stop is called.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve echoes datagrams on the bound socket. It returns nil after Stop or
// cancellation of ctx, and an error if the socket fails.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotListening
	}
	defer conn.Close()

	go s.peers.Start()
	defer s.peers.Stop()

	stopOnCancel := context.AfterFunc(ctx, s.Stop)
	defer stopOnCancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.stop:
			// Unblock ReadFrom
			conn.Close()
		case <-done:
		}
	}()

	buf := make([]byte, MaxDatagramSize)
	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if s.stopped() {
				slog.Debug("Echo server stopped")
				return nil
			}
			return fmt.Errorf("receive datagram: %w", err)
		}

		if _, err := conn.WriteTo(buf[:n], src); err != nil {
			slog.Warn("Failed to echo datagram", "peer", src.String(), "error", err)
			continue
		}

		slog.Debug("Echoed datagram", "peer", src.String(), "size", n)
		s.countPeer(src.String(), n)
	}
}

// Stop makes Serve return. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *Server) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *Server) countPeer(peer string, size int) {
	var count uint64
	isNew := true
	if item := s.peers.Get(peer); item != nil {
		count = item.Value()
		isNew = false
	}
	s.peers.Set(peer, count+1, ttlcache.DefaultTTL)

	if o := s.config.Observer; o != nil {
		o.ObserveEcho(size)
		if isNew {
			o.ObservePeers(s.peers.Len())
		}
	}
}

func (s *Server) observePeers() {
	if o := s.config.Observer; o != nil {
		o.ObservePeers(s.peers.Len())
	}
}

// Peers returns the number of datagrams echoed per source address, for
// sources seen within the peer TTL.
func (s *Server) Peers() map[string]uint64 {
	items := s.peers.Items()
	out := make(map[string]uint64, len(items))
	for peer, item := range items {
		out[peer] = item.Value()
	}
	return out
}
