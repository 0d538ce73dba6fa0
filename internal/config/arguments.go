package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/tkjaer/ulat/internal/version"
)

type Mode string

const (
	ModeClient Mode = "client"
	ModeServer Mode = "server"
)

var modes = []Mode{ModeClient, ModeServer}

type ClientArgs struct {
	Address    string
	Port       uint
	ClientPort uint

	// Probing
	Interval   time.Duration
	PacketSize uint
	Count      uint // 0 = run until interrupted
	Grace      time.Duration

	// Address family and naming
	ForceIPv4 bool
	ForceIPv6 bool
	NoResolve bool

	// Output
	CSV      string // raw sample export
	Json     bool   // output json to stdout
	JsonFile string // output json to file while showing TUI
	NoTUI    bool
	TUI      bool // resolved: dashboard enabled and stdout is a terminal
}

type ServerArgs struct {
	Address string
	Port    uint
	PeerTTL time.Duration
}

type Args struct {
	Mode   Mode
	Client ClientArgs
	Server ServerArgs

	MetricsAddr string // empty disables the metrics endpoint
	ConfigFile  string

	// Logging
	Log      string // log file path, empty means no logging in TUI mode
	LogLevel string // log level: debug, info, warn, error
}

// isTerminal reports whether stdout can host the dashboard
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func ParseArgs() (Args, error) {
	return parseArgs(os.Args[1:], os.Stderr)
}

func parseArgs(argv []string, usageOut io.Writer) (Args, error) {
	var args Args

	if len(argv) == 0 {
		printUsage(usageOut)
		return args, errors.New("subcommand is required (client or server)")
	}

	switch argv[0] {
	case "-v", "--version", "version":
		fmt.Println(version.FullVersion())
		os.Exit(0)
	case "-h", "--help", "help":
		printUsage(usageOut)
		return args, flag.ErrHelp
	}

	mode, err := resolveMode(argv[0])
	if err != nil {
		return args, err
	}
	args.Mode = mode

	switch mode {
	case ModeClient:
		err = parseClientArgs(&args, argv[1:], usageOut)
	case ModeServer:
		err = parseServerArgs(&args, argv[1:], usageOut)
	}
	return args, err
}

// resolveMode accepts any unambiguous prefix of a subcommand name
func resolveMode(name string) (Mode, error) {
	var found []Mode
	for _, m := range modes {
		if strings.HasPrefix(string(m), name) {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", fmt.Errorf("unknown subcommand %q", name)
	default:
		return "", fmt.Errorf("ambiguous subcommand %q", name)
	}
}

func addCommonFlags(fs *flag.FlagSet, args *Args) {
	fs.StringVar(&args.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	fs.StringVar(&args.ConfigFile, "config", "", "YAML file with default flag values")
	fs.StringVarP(&args.Log, "log", "l", "", "Diagnostic log file")
	fs.StringVar(&args.LogLevel, "log-level", "error", "Log level: debug, info, warn, error")
}

func parseClientArgs(args *Args, argv []string, usageOut io.Writer) error {
	c := &args.Client
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(usageOut)
	fs.Usage = func() {
		fmt.Fprintln(usageOut, "Usage:")
		fmt.Fprintln(usageOut, "  ulat client [OPTIONS] ADDRESS PORT")
		fmt.Fprintln(usageOut)
		fmt.Fprintln(usageOut, "With --count 0 the measurement runs until interrupted (q or Ctrl+C);")
		fmt.Fprintln(usageOut, "no report is produced if it is never interrupted.")
		fmt.Fprintln(usageOut)
		fmt.Fprintln(usageOut, "Options:")
		fs.PrintDefaults()
	}

	fs.UintVar(&c.ClientPort, "client-port", 0, "Local UDP port (0 = ephemeral)")
	fs.DurationVarP(&c.Interval, "interval", "i", 20*time.Millisecond, "Delay between probes")
	fs.UintVarP(&c.PacketSize, "packet-size", "z", 64, "Probe payload size in bytes")
	fs.UintVarP(&c.Count, "count", "c", 100, "Number of probes (0 = infinite)")
	fs.DurationVar(&c.Grace, "grace", 500*time.Millisecond, "Time to wait for late echoes after the last probe")
	fs.BoolVarP(&c.ForceIPv4, "ipv4", "4", false, "Force IPv4")
	fs.BoolVarP(&c.ForceIPv6, "ipv6", "6", false, "Force IPv6")
	fs.BoolVarP(&c.NoResolve, "no-resolve", "n", false, "Do not resolve the destination to a hostname")
	fs.StringVar(&c.CSV, "csv", "", "Write raw samples as CSV to file")
	fs.BoolVarP(&c.Json, "json", "J", false, "Write JSON summary to stdout (disables TUI)")
	fs.StringVarP(&c.JsonFile, "json-file", "j", "", "Write JSON summary to file (keeps TUI)")
	fs.BoolVar(&c.NoTUI, "no-tui", false, "Print a plain summary instead of the dashboard")
	addCommonFlags(fs, args)

	if err := fs.Parse(argv); err != nil {
		return err
	}
	if err := loadConfigFile(fs, args.ConfigFile, "client"); err != nil {
		return err
	}

	if fs.NArg() != 2 {
		return errors.New("address and port are required")
	}
	c.Address = fs.Arg(0)
	port, err := parsePort(fs.Arg(1))
	if err != nil {
		return err
	}
	c.Port = port

	switch {
	case c.Json && c.JsonFile != "":
		return errors.New("cannot use both --json and --json-file")
	case c.ForceIPv4 && c.ForceIPv6:
		return errors.New("cannot force both IPv4 and IPv6")
	case c.Port == 0:
		return errors.New("destination port must be between 1 and 65535")
	case c.ClientPort > 65535:
		return errors.New("client port must be between 0 and 65535")
	case c.PacketSize < 8:
		return errors.New("packet size must be at least 8 bytes")
	case c.PacketSize > 65507:
		return errors.New("packet size must be at most 65507 bytes")
	case c.Interval <= 0:
		return errors.New("interval must be positive")
	case c.Grace <= 0:
		return errors.New("grace must be positive")
	}

	c.TUI = !c.Json && !c.NoTUI && isTerminal()
	return nil
}

func parseServerArgs(args *Args, argv []string, usageOut io.Writer) error {
	s := &args.Server
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(usageOut)
	fs.Usage = func() {
		fmt.Fprintln(usageOut, "Usage:")
		fmt.Fprintln(usageOut, "  ulat server --port PORT [OPTIONS]")
		fmt.Fprintln(usageOut)
		fmt.Fprintln(usageOut, "Options:")
		fs.PrintDefaults()
	}

	fs.UintVarP(&s.Port, "port", "p", 0, "UDP port to echo on")
	fs.StringVar(&s.Address, "address", "", "Local address to bind (default all)")
	fs.DurationVar(&s.PeerTTL, "peer-ttl", 5*time.Minute, "Forget per-source counters after this long without traffic")
	addCommonFlags(fs, args)

	if err := fs.Parse(argv); err != nil {
		return err
	}
	if err := loadConfigFile(fs, args.ConfigFile, "server"); err != nil {
		return err
	}

	switch {
	case fs.NArg() > 0:
		return fmt.Errorf("unexpected argument %q", fs.Arg(0))
	case s.Port == 0 || s.Port > 65535:
		return errors.New("port must be between 1 and 65535")
	case s.PeerTTL <= 0:
		return errors.New("peer TTL must be positive")
	}
	return nil
}

func parsePort(s string) (uint, error) {
	var port uint
	if _, err := fmt.Sscanf(s, "%d", &port); err != nil || fmt.Sprint(port) != s {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port > 65535 {
		return 0, errors.New("destination port must be between 1 and 65535")
	}
	return port, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ulat - UDP round-trip latency measurement")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ulat server --port PORT [OPTIONS]      # run the echo responder")
	fmt.Fprintln(w, "  ulat client [OPTIONS] ADDRESS PORT     # measure latency against it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  ulat server -p 7777")
	fmt.Fprintln(w, "  ulat client -c 1000 -i 10ms 192.0.2.1 7777")
	fmt.Fprintln(w, "  ulat client --csv samples.csv -J example.com 7777")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'ulat <subcommand> --help' for subcommand options.")
}
