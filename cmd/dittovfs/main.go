package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/marmos91/dittovfs/internal/logger"
	"github.com/marmos91/dittovfs/pkg/config"
	"github.com/marmos91/dittovfs/pkg/fixture"
	"github.com/marmos91/dittovfs/pkg/vfs"
	flag "github.com/spf13/pflag"
)

const usage = `DittoVFS - In-Memory Virtual Filesystem

Usage:
  dittovfs <command> [flags]

Commands:
  tree       Build a device and print its tree and capacity
  snapshot   Build a device and print its YAML structure
  serve      Build a device and expose /tree and /metrics over HTTP

Flags:
`

// options holds command-line overrides applied on top of the configuration.
type options struct {
	configPath string
	dir        string
	quota      string
	contents   bool
	structure  string
	logLevel   string
	port       int
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		printUsage(os.Stderr, newFlagSet(&options{}))
		os.Exit(2)
	}

	command := os.Args[1]
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	cfg, err := loadConfig(fs, &opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	closer, err := config.ConfigureLogging(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "tree":
		err = runTree(ctx, cfg, os.Stdout)
	case "snapshot":
		err = runSnapshot(ctx, cfg, os.Stdout)
	case "serve":
		err = runServe(ctx, cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage(os.Stderr, fs)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("%s failed: %v", command, err)
		os.Exit(1)
	}
}

func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("dittovfs", flag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: $XDG_CONFIG_HOME/dittovfs/config.yaml)")
	fs.StringVarP(&opts.dir, "dir", "d", "", "Local directory to import into the device root")
	fs.StringVarP(&opts.quota, "quota", "q", "", "Device quota (e.g. 10MB, 512, unlimited)")
	fs.BoolVar(&opts.contents, "contents", false, "Copy file contents when importing a directory")
	fs.StringVarP(&opts.structure, "structure", "s", "", "YAML structure file built on top of the import")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	fs.IntVarP(&opts.port, "port", "p", 0, "HTTP port for the serve command")
	return fs
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprint(w, usage)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// loadConfig loads the configuration file and applies the flags that were
// explicitly set on the command line.
func loadConfig(fs *flag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if fs.Changed("dir") {
		cfg.Source.Type = "directory"
		cfg.Source.Directory = map[string]any{
			"path":             opts.dir,
			"include_contents": opts.contents,
		}
	} else if fs.Changed("contents") && cfg.Source.Directory != nil {
		cfg.Source.Directory["include_contents"] = opts.contents
	}
	if fs.Changed("quota") {
		cfg.Device.Quota = opts.quota
	}
	if fs.Changed("structure") {
		cfg.Fixture.Structure = opts.structure
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if fs.Changed("port") {
		cfg.Metrics.Port = opts.port
	}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func runTree(ctx context.Context, cfg *config.Config, w io.Writer) error {
	dev, err := config.BuildDevice(ctx, cfg, nil)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprint(w, dev.Root().Tree())
	_, _ = fmt.Fprintln(w, capacityLine(dev))
	return nil
}

func runSnapshot(ctx context.Context, cfg *config.Config, w io.Writer) error {
	dev, err := config.BuildDevice(ctx, cfg, nil)
	if err != nil {
		return err
	}
	return fixture.Snapshot(dev.Root()).Encode(w)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	// serve always exposes /metrics
	cfg.Metrics.Enabled = true
	result := config.InitializeMetrics(cfg)

	dev, err := config.BuildDevice(ctx, cfg, result.DeviceMetrics)
	if err != nil {
		return err
	}

	result.Server.Handle("/tree", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprint(w, dev.Root().Tree())
		_, _ = fmt.Fprintln(w, capacityLine(dev))
	}))

	logger.Info("Serving device tree at http://localhost:%d/tree (%s)", result.Server.Port(), capacityLine(dev))
	return result.Server.Start(ctx)
}

// capacityLine renders the device usage, e.g. "12 kB used of 10 MB (9.9 MB free)".
func capacityLine(dev *vfs.Device) string {
	used := humanize.Bytes(uint64(dev.Used()))
	if dev.IsUnlimited() {
		return fmt.Sprintf("%s used (unlimited)", used)
	}

	free := dev.AvailableSize()
	if free < 0 {
		free = 0
	}
	return fmt.Sprintf("%s used of %s (%s free)", used, humanize.Bytes(uint64(dev.Quota())), humanize.Bytes(uint64(free)))
}
