package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tkjaer/ulat/internal/config"
	"github.com/tkjaer/ulat/internal/latency"
	"github.com/tkjaer/ulat/internal/metrics"
	"github.com/tkjaer/ulat/internal/output"
	"github.com/tkjaer/ulat/internal/shared"
	"github.com/tkjaer/ulat/pkg/ptr"
)

func runClient(args config.Args) error {
	c := args.Client

	ip, err := config.ResolveDestination(c.Address, c.ForceIPv4, c.ForceIPv6)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Address, err)
	}

	info := shared.OutputInfo{
		Destination:   c.Address,
		DestinationIP: ip.String(),
		Port:          uint16(c.Port),
		PacketSize:    int(c.PacketSize),
		Interval:      c.Interval,
		Count:         uint64(c.Count),
	}
	if !c.NoResolve {
		info.DestinationPTR = ptr.NewPtrManager().Lookup(ip.String())
	}

	slog.Debug("Starting UDP latency measurement",
		"destination", info.Destination,
		"ip", info.DestinationIP,
		"ptr", info.DestinationPTR,
		"port", info.Port,
	)

	events := make(chan latency.Event)
	l, err := latency.NewLatency(latency.Config{
		Destination: netip.AddrPortFrom(ip, uint16(c.Port)),
		ClientPort:  uint16(c.ClientPort),
		PacketSize:  int(c.PacketSize),
		Interval:    c.Interval,
		Count:       uint64(c.Count),
		Grace:       c.Grace,
	}, events)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	om := &output.OutputManager{}
	defer om.Close()

	var tui *output.BubbleTUIOutput
	switch {
	case c.TUI:
		tui = output.NewBubbleTUIOutput(info)
		om.Register(tui)
	case c.Json:
		jsonOut, err := output.NewJSONOutput("")
		if err != nil {
			return err
		}
		om.Register(jsonOut)
	default:
		om.Register(output.NewTextOutput(os.Stdout))
	}

	if c.JsonFile != "" {
		jsonOut, err := output.NewJSONOutput(c.JsonFile)
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		om.Register(jsonOut)
	}
	if c.CSV != "" {
		om.Register(output.NewCSVOutput(c.CSV))
	}
	if args.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		om.Register(metrics.NewMetrics(reg, info.Destination))
		go serveMetrics(ctx, args.MetricsAddr, reg)
	}

	dispatched := make(chan struct{})
	go func() {
		om.Run(events)
		close(dispatched)
	}()

	if tui != nil {
		tui.Start()
		go func() {
			select {
			case <-tui.QuitChan():
				l.Stop()
			case <-ctx.Done():
			}
		}()
	}

	result, runErr := l.Run(ctx)
	<-dispatched

	summary := shared.NewSummary(info, &result)
	om.Complete(summary)

	slog.Info("UDP latency measurement completed",
		"sent", summary.Sent,
		"received", summary.Received,
		"loss_pct", summary.LossPct,
		"min_us", summary.Min,
		"avg_us", summary.Avg,
		"max_us", summary.Max,
	)

	if tui != nil && runErr == nil {
		// Keep the final numbers on screen until the user leaves
		select {
		case <-tui.QuitChan():
		case <-ctx.Done():
		}
	}

	return runErr
}
