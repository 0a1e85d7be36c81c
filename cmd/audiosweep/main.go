// Command audiosweep measures the frequency and phase response of an audio
// device and levels a signal generator to a target voltage.
//
// Usage:
//
//	audiosweep [flags] <command> [args]
//
// Commands:
//
//	sweep [level-run-id]
//	        run a logarithmic frequency sweep and print the response; with a
//	        run ID the generator amplitude found by that level run is used
//	level   adjust the generator amplitude until the device output reaches the target
//	scale   print the sweep frequencies and the capture plan of every point
//	idn     print the identification of the generator
//	runs    list the runs in the database
//
// Examples:
//
//	audiosweep -c bench.yaml sweep
//	audiosweep -sim -db runs.sqlite level
//	audiosweep -sim -db runs.sqlite sweep 0b7c6f1e-5d0a-4c55-9a43-3f1f2d6c9e10
//	audiosweep -sim -level sweep
//	audiosweep -addr 192.168.1.20 idn
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/cwbudde/algo-audiotest/cmd/audiosweep/app"
	"github.com/cwbudde/algo-audiotest/internal/config"
)

func main() {
	var logLevel slog.LevelVar
	logger := newLogger(os.Stderr, &logLevel)

	var (
		configPath  string
		useSim      bool
		addr        string
		device      string
		dbPath      string
		metricsAddr string
		verbose     bool
		levelFirst  bool
	)
	flag.StringVar(&configPath, "c", "", "Path to the configuration file")
	flag.BoolVar(&useSim, "sim", false, "use the simulated bench")
	flag.StringVar(&addr, "addr", "", "generator address host[:port] (SCPI over TCP)")
	flag.StringVar(&device, "usbtmc", "", "generator usbtmc device node")
	flag.StringVar(&dbPath, "db", "", "SQLite database for storing runs")
	flag.StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address")
	flag.BoolVar(&levelFirst, "level", false, "level the generator before sweeping")
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: audiosweep [flags] <%s> [args]\n\n", strings.Join(app.Commands, "|"))
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load configuration file: %s", err.Error()), slog.String("path", configPath))
		os.Exit(1)
	}

	var over config.Config
	switch {
	case useSim:
		over.Generator.Transport = config.TransportSim
	case addr != "":
		over.Generator.Transport = config.TransportTCP
		over.Generator.Address = addr
	case device != "":
		over.Generator.Transport = config.TransportUSBTMC
		over.Generator.Device = device
	}
	over.Storage.Path = dbPath
	over.Metrics.Listen = metricsAddr
	over.Level.BeforeSweep = levelFirst
	if verbose {
		over.Settings.LogLevel = "debug"
	}
	*cfg = cfg.Override(over)

	if err = cfg.Validate(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	lvl, _ := cfg.SlogLevel()
	logLevel.Set(lvl)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, cfg, logger, os.Stdout, flag.Args()); err != nil {
		logger.Error(err.Error())
		if errors.Is(err, app.ErrUsage) {
			flag.Usage()
		}

		cancel()
		os.Exit(1)
	}
}

// newLogger writes human readable logs to a terminal and JSON otherwise.
func newLogger(f *os.File, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(f, opts))
	}
	return slog.New(slog.NewJSONHandler(f, opts))
}
