package config

import (
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	flag "github.com/spf13/pflag"
)

func init() {
	isTerminal = func() bool { return false }
}

func Test_parseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func Test_resolveMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr string
	}{
		{"client", ModeClient, ""},
		{"c", ModeClient, ""},
		{"cli", ModeClient, ""},
		{"server", ModeServer, ""},
		{"s", ModeServer, ""},
		{"serve", ModeServer, ""},
		{"x", "", "unknown subcommand"},
		{"clients", "", "unknown subcommand"},
		{"", "", "ambiguous subcommand"},
	}

	for _, tt := range tests {
		got, err := resolveMode(tt.input)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("resolveMode(%q) error = %v, want %q", tt.input, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("resolveMode(%q) = (%q, %v), want %q", tt.input, got, err, tt.want)
		}
	}
}

func TestParseArgs_ClientDefaults(t *testing.T) {
	args, err := parseArgs([]string{"client", "192.0.2.1", "7777"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}

	c := args.Client
	if args.Mode != ModeClient || c.Address != "192.0.2.1" || c.Port != 7777 {
		t.Errorf("got mode=%q address=%q port=%d", args.Mode, c.Address, c.Port)
	}
	if c.Interval != 20*time.Millisecond || c.PacketSize != 64 || c.Count != 100 || c.Grace != 500*time.Millisecond {
		t.Errorf("defaults: interval=%v size=%d count=%d grace=%v", c.Interval, c.PacketSize, c.Count, c.Grace)
	}
	if c.TUI {
		t.Error("TUI enabled without a terminal")
	}
	if args.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", args.LogLevel)
	}
}

func TestParseArgs_ClientFlags(t *testing.T) {
	args, err := parseArgs([]string{"c", "-c", "0", "-i", "5ms", "-z", "1200", "--client-port", "40000", "-n", "-6", "example.net", "9000", "--csv", "out.csv", "-J"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}

	c := args.Client
	if c.Count != 0 || c.Interval != 5*time.Millisecond || c.PacketSize != 1200 || c.ClientPort != 40000 {
		t.Errorf("got count=%d interval=%v size=%d client-port=%d", c.Count, c.Interval, c.PacketSize, c.ClientPort)
	}
	if !c.NoResolve || !c.ForceIPv6 || !c.Json || c.CSV != "out.csv" {
		t.Errorf("got no-resolve=%v ipv6=%v json=%v csv=%q", c.NoResolve, c.ForceIPv6, c.Json, c.CSV)
	}
	if c.Address != "example.net" || c.Port != 9000 {
		t.Errorf("got address=%q port=%d", c.Address, c.Port)
	}
}

func TestParseArgs_Validation(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantErr string
	}{
		{"no subcommand", []string{}, "subcommand is required"},
		{"unknown subcommand", []string{"probe"}, "unknown subcommand"},
		{"missing port", []string{"client", "192.0.2.1"}, "address and port are required"},
		{"bad port", []string{"client", "192.0.2.1", "http"}, "invalid port"},
		{"port out of range", []string{"client", "192.0.2.1", "70000"}, "between 1 and 65535"},
		{"zero port", []string{"client", "192.0.2.1", "0"}, "between 1 and 65535"},
		{"json conflict", []string{"client", "-J", "-j", "out.json", "192.0.2.1", "7"}, "cannot use both"},
		{"ip version conflict", []string{"client", "-4", "-6", "192.0.2.1", "7"}, "cannot force both"},
		{"packet too small", []string{"client", "-z", "4", "192.0.2.1", "7"}, "at least 8 bytes"},
		{"packet too large", []string{"client", "-z", "70000", "192.0.2.1", "7"}, "at most 65507 bytes"},
		{"zero interval", []string{"client", "-i", "0s", "192.0.2.1", "7"}, "interval must be positive"},
		{"zero grace", []string{"client", "--grace", "0s", "192.0.2.1", "7"}, "grace must be positive"},
		{"server without port", []string{"server"}, "port must be between"},
		{"server extra argument", []string{"server", "-p", "7", "extra"}, "unexpected argument"},
		{"server zero ttl", []string{"server", "-p", "7", "--peer-ttl", "0s"}, "peer TTL must be positive"},
		{"valid client", []string{"client", "192.0.2.1", "7"}, ""},
		{"valid server", []string{"s", "-p", "7777"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.argv, io.Discard)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("parseArgs() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("parseArgs() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	for _, argv := range [][]string{{"--help"}, {"client", "--help"}, {"server", "-h"}} {
		if _, err := parseArgs(argv, io.Discard); !errors.Is(err, flag.ErrHelp) {
			t.Errorf("parseArgs(%v) error = %v, want ErrHelp", argv, err)
		}
	}
}

func TestParseArgs_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ulat.yaml")
	content := `log-level: info
client:
  interval: 10ms
  count: 500
  no-resolve: true
server:
  port: 7777
  peer-ttl: 1m
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("client uses file values", func(t *testing.T) {
		args, err := parseArgs([]string{"client", "--config", path, "192.0.2.1", "7"}, io.Discard)
		if err != nil {
			t.Fatalf("parseArgs() error = %v", err)
		}
		if args.Client.Interval != 10*time.Millisecond || args.Client.Count != 500 || !args.Client.NoResolve {
			t.Errorf("got interval=%v count=%d no-resolve=%v", args.Client.Interval, args.Client.Count, args.Client.NoResolve)
		}
		if args.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", args.LogLevel)
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		args, err := parseArgs([]string{"client", "--config", path, "-c", "3", "--log-level", "debug", "192.0.2.1", "7"}, io.Discard)
		if err != nil {
			t.Fatalf("parseArgs() error = %v", err)
		}
		if args.Client.Count != 3 || args.LogLevel != "debug" {
			t.Errorf("got count=%d log-level=%q, want 3 and debug", args.Client.Count, args.LogLevel)
		}
		if args.Client.Interval != 10*time.Millisecond {
			t.Errorf("Interval = %v, want 10ms from file", args.Client.Interval)
		}
	})

	t.Run("server section", func(t *testing.T) {
		args, err := parseArgs([]string{"server", "--config", path}, io.Discard)
		if err != nil {
			t.Fatalf("parseArgs() error = %v", err)
		}
		if args.Server.Port != 7777 || args.Server.PeerTTL != time.Minute {
			t.Errorf("got port=%d peer-ttl=%v", args.Server.Port, args.Server.PeerTTL)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(bad, []byte("client:\n  colour: blue\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := parseArgs([]string{"client", "--config", bad, "192.0.2.1", "7"}, io.Discard)
		if err == nil || !strings.Contains(err.Error(), "unknown config key") {
			t.Errorf("parseArgs() error = %v, want unknown config key", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := parseArgs([]string{"server", "-p", "7", "--config", filepath.Join(t.TempDir(), "nope.yaml")}, io.Discard)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("parseArgs() error = %v, want ErrNotExist", err)
		}
	})
}

func TestArgs_logMode(t *testing.T) {
	tests := []struct {
		name string
		args Args
		want string
	}{
		{"server", Args{Mode: ModeServer}, "text"},
		{"client json", Args{Mode: ModeClient, Client: ClientArgs{Json: true}}, "json"},
		{"client tui", Args{Mode: ModeClient, Client: ClientArgs{TUI: true}}, "tui"},
		{"client plain", Args{Mode: ModeClient}, "text"},
	}

	for _, tt := range tests {
		if got := tt.args.logMode(); got != tt.want {
			t.Errorf("%s: logMode() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolveDestination(t *testing.T) {
	orig := lookupHost
	defer func() { lookupHost = orig }()
	lookupHost = func(host string) ([]string, error) {
		switch host {
		case "dual.example":
			return []string{"2001:db8::7", "192.0.2.7"}, nil
		case "v4.example":
			return []string{"192.0.2.8"}, nil
		}
		return nil, errors.New("no such host")
	}

	tests := []struct {
		name        string
		destination string
		ipv4, ipv6  bool
		want        string
		wantErr     bool
	}{
		{"literal v4", "192.0.2.1", false, false, "192.0.2.1", false},
		{"literal v6", "2001:db8::1", false, false, "2001:db8::1", false},
		{"mapped v4 unmapped", "::ffff:192.0.2.1", false, false, "192.0.2.1", false},
		{"hostname first record", "dual.example", false, false, "2001:db8::7", false},
		{"hostname forced v4", "dual.example", true, false, "192.0.2.7", false},
		{"hostname forced v6 unavailable", "v4.example", false, true, "", true},
		{"literal v4 forced v6", "192.0.2.1", false, true, "", true},
		{"unresolvable", "nowhere.invalid", false, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDestination(tt.destination, tt.ipv4, tt.ipv6)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ResolveDestination() = %v, want error", got)
				}
				return
			}
			if err != nil || got != netip.MustParseAddr(tt.want) {
				t.Errorf("ResolveDestination() = (%v, %v), want %s", got, err, tt.want)
			}
		})
	}
}
