package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cwbudde/algo-audiotest/instrument"
	"github.com/cwbudde/algo-audiotest/instrument/scpitcp"
	"github.com/cwbudde/algo-audiotest/instrument/sim"
	"github.com/cwbudde/algo-audiotest/instrument/usbtmc"
	"github.com/cwbudde/algo-audiotest/internal/config"
	"github.com/cwbudde/algo-audiotest/internal/metrics"
	"github.com/cwbudde/algo-audiotest/internal/storage"
)

var (
	ErrUsage       = errors.New("usage error")
	ErrNoDigitizer = errors.New("no digitizer available for this generator transport")
	ErrNoStorage   = errors.New("storage is not configured")
)

// Commands lists the subcommands understood by [Run].
var Commands = []string{"sweep", "level", "scale", "idn", "runs"}

// LoadConfig reads the configuration file at path. An empty path returns
// the defaults.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	store   *storage.Store
	metrics *metrics.Metrics
}

// Run executes the subcommand in args[0] and writes its table to out.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, args []string) (err error) {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	a := &app{cfg: cfg, logger: logger, out: out}

	if cfg.Storage.Path != "" {
		if a.store, err = storage.Open(cfg.Storage.Path); err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		defer func() {
			if cErr := a.store.Close(); cErr != nil && err == nil {
				err = cErr
			}
		}()
	}

	if cfg.Metrics.Listen != "" {
		a.metrics = metrics.New()
		stop, err := serveMetrics(cfg.Metrics.Listen, a.metrics, logger)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer stop()
	}

	switch args[0] {
	case "sweep":
		return a.withBench(ctx, func(ctx context.Context, b *bench) error {
			return a.runSweep(ctx, b, args[1:])
		})
	case "level":
		return a.withBench(ctx, a.runLevel)
	case "idn":
		return a.withBench(ctx, a.identify)
	case "scale":
		return a.printScale()
	case "runs":
		return a.listRuns(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

// bench is a connected generator and, when the transport provides one, a
// digitizer.
type bench struct {
	gen    instrument.Generator
	acq    instrument.Acquirer
	closer io.Closer
}

func (a *app) withBench(ctx context.Context, fn func(context.Context, *bench) error) (err error) {
	b, err := a.connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to generator: %w", err)
	}
	if b.closer != nil {
		defer func() {
			if cErr := b.closer.Close(); cErr != nil && err == nil {
				err = cErr
			}
		}()
	}
	return fn(ctx, b)
}

func (a *app) connect(ctx context.Context) (*bench, error) {
	gc := a.cfg.Generator

	switch gc.Transport {
	case config.TransportSim:
		sb := sim.NewBench(a.cfg.SimOptions()...)
		a.logger.Debug("using simulated bench", slog.String("response", a.cfg.Simulation.Response))
		return &bench{gen: sb, acq: sb}, nil

	case config.TransportTCP:
		c, err := scpitcp.Dial(ctx, gc.Address, scpitcp.WithTimeout(gc.Timeout))
		if err != nil {
			return nil, err
		}
		a.logger.Debug("connected to generator", slog.String("address", gc.Address))
		return &bench{gen: c, closer: c}, nil

	case config.TransportUSBTMC:
		var (
			d   *usbtmc.Device
			err error
		)
		if gc.Device != "" {
			d, err = usbtmc.Open(gc.Device)
		} else {
			d, err = usbtmc.OpenFirst(usbtmc.DefaultDir)
		}
		if err != nil {
			return nil, err
		}
		a.logger.Debug("opened generator", slog.String("device", d.Name()))
		return &bench{gen: d, closer: d}, nil

	default:
		return nil, fmt.Errorf("unknown transport '%s'", gc.Transport)
	}
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func serveMetrics(addr string, m *metrics.Metrics, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           metricsMux(m),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("err", err.Error()))
		}
	}()
	logger.Info("serving metrics", slog.String("address", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
