// Package main is the entry point for the nvsyncd synchronization daemon.
//
// The daemon mirrors a host editor's layout into a modal-editing backend.
// Host editor and backend RPC endpoints are supplied by the embedding
// environment; this binary wires configuration, logging, and lifecycle
// around the bufsync manager.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ian-h-chamberlain/vscode-neovim/internal/config"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/log"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Output: os.Stderr,
		Prefix: "nvsyncd",
	})

	if opts.checkConfig {
		fmt.Printf("config ok: layout debounce %s, active debounce %s, viewport %dx%d\n",
			cfg.LayoutDebounce(), cfg.ActiveDebounce(), cfg.ViewportWidth, cfg.ViewportHeight)
		return 0
	}

	// The sync core runs embedded: the host extension process constructs a
	// bufsync.Manager over its host.API and nvim.Client endpoints. Standalone
	// operation requires those endpoints on the command line, which no
	// transport in this build provides.
	if opts.endpoint == "" {
		logger.Error("no backend endpoint configured; run with -check to validate configuration")
		return 1
	}

	logger.Info("nvsyncd %s (%s) starting against %s", version, commit, opts.endpoint)

	// Standalone, only the shell's own settings can follow the file; an
	// embedding forwards reloads into its manager's ApplyConfig instead.
	watcher, err := config.NewWatcher(opts.configPath, logger, func(next config.Config) {
		logger.SetLevel(log.ParseLevel(next.LogLevel))
	})
	if err != nil {
		logger.Warn("config live reload disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	logger.Info("shutting down")
	return 0
}

type options struct {
	configPath  string
	endpoint    string
	checkConfig bool
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", defaultConfigPath(), "Path to configuration file")
	flag.StringVar(&opts.endpoint, "endpoint", "", "Backend RPC endpoint")
	flag.BoolVar(&opts.checkConfig, "check", false, "Validate configuration and exit")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("nvsyncd %s (%s)\n", version, commit)
		os.Exit(0)
	}
	return opts
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "nvsyncd.toml"
	}
	return dir + "/nvsyncd/config.toml"
}
