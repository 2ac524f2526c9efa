package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/presbrey/relayd/envtree"
	"github.com/presbrey/relayd/irc/config"
	"github.com/presbrey/relayd/irc/server"
	"github.com/spf13/pflag"
)

type options struct {
	configPath string
	admin      string
	websocket  bool
	debug      bool
	port       string
	password   string
}

func parseArgs(args []string) (*options, error) {
	opts := &options{}

	flags := pflag.NewFlagSet("ircd", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: ircd [flags] [<port> <password>]")
		flags.PrintDefaults()
	}
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file or URL (yaml, toml or json)")
	flags.StringVar(&opts.admin, "admin", "", "serve the admin HTTP API on this address")
	flags.BoolVar(&opts.websocket, "websocket", false, "accept WebSocket clients on the admin listener")
	flags.BoolVar(&opts.debug, "debug", false, "log every protocol line")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	switch flags.NArg() {
	case 0:
	case 2:
		opts.port, opts.password = flags.Arg(0), flags.Arg(1)
	default:
		flags.Usage()
		return nil, fmt.Errorf("expected <port> <password>, got %d arguments", flags.NArg())
	}
	return opts, nil
}

// loadConfig layers the config file, the environment and the command line
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.port != "" {
		port, err := strconv.Atoi(opts.port)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", opts.port)
		}
		cfg.Server.Port = port
		cfg.Server.Password = opts.password
	}
	if opts.admin != "" {
		cfg.Admin.Enabled = true
		cfg.Admin.Listen = opts.admin
	}
	if opts.websocket {
		cfg.WebSocket.Enabled = true
		cfg.Admin.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	loaded, err := envtree.New(&envtree.Config{FileName: ".env", Logger: logger}).Load()
	if err != nil {
		logger.Error("failed to load .env files", "err", err)
		os.Exit(1)
	}
	if len(loaded) > 0 {
		logger.Debug("loaded environment files", "files", loaded)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "err", err)
		os.Exit(1)
	}
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "err", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutdown signal received", "signal", sig.String())

	if err := srv.Stop(); err != nil {
		logger.Error("error stopping server", "err", err)
		os.Exit(1)
	}
}
