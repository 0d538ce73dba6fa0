package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tkjaer/ulat/internal/config"
	"github.com/tkjaer/ulat/internal/echo"
	"github.com/tkjaer/ulat/internal/metrics"
)

func runServer(args config.Args) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := echo.Config{
		Address: args.Server.Address,
		Port:    uint16(args.Server.Port),
		PeerTTL: args.Server.PeerTTL,
	}
	if args.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		cfg.Observer = metrics.NewEchoMetrics(reg)
		go serveMetrics(ctx, args.MetricsAddr, reg)
	}

	srv := echo.NewServer(cfg)
	if err := srv.Run(ctx); err != nil {
		return err
	}

	slog.Info("Echo server stopped", "peers", len(srv.Peers()))
	return nil
}

func serveMetrics(ctx context.Context, addr string, g prometheus.Gatherer) {
	if err := metrics.Serve(ctx, addr, g); err != nil {
		slog.Error("Metrics server failed", "address", addr, "error", err)
	}
}
