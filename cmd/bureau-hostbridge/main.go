// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/hostbridge/bridge"
	"github.com/bureau-foundation/hostbridge/control"
	"github.com/bureau-foundation/hostbridge/lib/config"
	"github.com/bureau-foundation/hostbridge/lib/envelope"
	"github.com/bureau-foundation/hostbridge/lib/service"
	"github.com/bureau-foundation/hostbridge/lib/version"
	"github.com/bureau-foundation/hostbridge/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath    string
		hostSocket    string
		controlSocket string
		verbose       bool
		showVersion   bool
	)

	flagSet := pflag.NewFlagSet("bureau-hostbridge", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to hostbridge.yaml (default: $"+config.EnvVar+")")
	flagSet.StringVar(&hostSocket, "host-socket", "", "override transport.host_socket")
	flagSet.StringVar(&controlSocket, "control-socket", "", "override control.socket_path")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		fmt.Printf("bureau-hostbridge %s\n", version.Full())
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if hostSocket != "" {
		cfg.Transport.HostSocket = hostSocket
	}
	if controlSocket != "" {
		cfg.Control.SocketPath = controlSocket
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := newDaemon(cfg, logger)
	if err != nil {
		return err
	}
	return d.serve(ctx)
}

// daemon is a bridge wired to a stream transport toward the host and
// a control server for the host and native callers.
type daemon struct {
	bridge    *bridge.Bridge
	transport *transport.StreamTransport
	server    *service.SocketServer
	logger    *slog.Logger
}

func newDaemon(cfg *config.Config, logger *slog.Logger) (*daemon, error) {
	compression, err := transport.ParseCompression(cfg.Transport.Compression)
	if err != nil {
		return nil, err
	}

	answers := make(map[envelope.MessageKind]string, len(cfg.Bridge.Answers))
	for kind, answer := range cfg.Bridge.Answers {
		answers[envelope.MessageKind(kind)] = answer
	}

	b := bridge.New(bridge.Config{
		Timeout: cfg.RequestTimeout(),
		Logger:  logger.With("component", "bridge"),
		Answers: answers,
	})

	stream, err := transport.NewStreamTransport(transport.StreamConfig{
		SocketPath:  cfg.Transport.HostSocket,
		DialTimeout: cfg.DialTimeout(),
		Compression: compression,
		Logger:      logger.With("component", "transport"),
	})
	if err != nil {
		return nil, err
	}
	if err := b.InitializeTransport(stream); err != nil {
		stream.Close()
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Control.SocketPath), 0o700); err != nil {
		stream.Close()
		return nil, fmt.Errorf("creating control socket directory: %w", err)
	}
	server := service.NewSocketServer(cfg.Control.SocketPath, logger.With("component", "control"))
	if cfg.Control.SameUserOnly {
		server.RequireSameUser()
	}
	control.Register(server, b)

	logger.Info("hostbridge configured",
		"version", version.Info(),
		"environment", cfg.Environment,
		"host_socket", cfg.Transport.HostSocket,
		"control_socket", cfg.Control.SocketPath,
		"compression", compression.String(),
		"request_timeout", cfg.RequestTimeout(),
	)

	return &daemon{bridge: b, transport: stream, server: server, logger: logger}, nil
}

// serve runs the control server until ctx is cancelled, then closes
// the host connection.
func (d *daemon) serve(ctx context.Context) error {
	defer d.transport.Close()
	err := d.server.Serve(ctx)
	d.logger.Info("hostbridge stopped", "pending", d.bridge.Status().Pending)
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `bureau-hostbridge - cross-boundary call bridge daemon

Posts SDK events and device data requests to a host runtime's mailbox
socket and serves the control socket the host uses to set ports and
answer requests.

Usage:
  bureau-hostbridge [flags]

Flags:
%s
Configuration is read from --config or $%s.
`, flagSet.FlagUsages(), config.EnvVar)
}
