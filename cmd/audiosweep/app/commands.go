package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/cwbudde/algo-audiotest/instrument"
	"github.com/cwbudde/algo-audiotest/internal/storage"
	"github.com/cwbudde/algo-audiotest/measure/level"
	"github.com/cwbudde/algo-audiotest/measure/rms"
	"github.com/cwbudde/algo-audiotest/measure/sweep"
)

func (a *app) estimator() (*rms.Estimator, error) {
	opts, err := a.cfg.EstimatorOptions()
	if err != nil {
		return nil, err
	}
	return rms.New(append(opts, rms.WithLogger(a.logger))...), nil
}

// sweepArgs checks the optional level run ID given to the sweep command.
func (a *app) sweepArgs(args []string) (uuid.UUID, error) {
	switch len(args) {
	case 0:
		return uuid.Nil, nil
	case 1:
		if a.store == nil {
			return uuid.Nil, ErrNoStorage
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: level run %q: %w", ErrUsage, args[0], err)
		}
		return id, nil
	default:
		return uuid.Nil, fmt.Errorf("%w: sweep takes at most one level run ID", ErrUsage)
	}
}

// sweepAmplitude returns the amplitude stored for levelRun, the amplitude of
// a fresh leveling run when level.beforeSweep is set, or
// generator.amplitude.
func (a *app) sweepAmplitude(ctx context.Context, b *bench, levelRun uuid.UUID) (float64, error) {
	switch {
	case levelRun != uuid.Nil:
		res, err := a.store.LevelResult(ctx, levelRun)
		if err != nil {
			return 0, fmt.Errorf("reading level run %s: %w", levelRun, err)
		}
		a.logger.Info("using stored level",
			slog.String("level_run", levelRun.String()),
			slog.Float64("amplitude", res.Amplitude))
		return res.Amplitude, nil

	case a.cfg.Level.BeforeSweep:
		res, err := a.level(ctx, b)
		if err != nil {
			return 0, err
		}
		return res.Amplitude, nil

	default:
		return a.cfg.Generator.Amplitude, nil
	}
}

func (a *app) runSweep(ctx context.Context, b *bench, args []string) error {
	if b.acq == nil {
		return fmt.Errorf("%w: %s", ErrNoDigitizer, a.cfg.Generator.Transport)
	}
	levelRun, err := a.sweepArgs(args)
	if err != nil {
		return err
	}

	sc, err := a.cfg.SweepConfig()
	if err != nil {
		return err
	}
	if sc.Amplitude, err = a.sweepAmplitude(ctx, b, levelRun); err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	est, err := a.estimator()
	if err != nil {
		return err
	}
	policy, rate, kind, err := a.cfg.PhaseOptions()
	if err != nil {
		return err
	}
	runCfg := *a.cfg
	runCfg.Generator.Amplitude = sc.Amplitude
	rec, err := a.newRecorder(ctx, storage.KindSweep, &runCfg)
	if err != nil {
		return err
	}

	runner, err := sweep.NewRunner(b.gen, b.acq, sc,
		sweep.WithLogger(a.logger),
		sweep.WithEstimator(est),
		sweep.WithPhasePolicy(policy),
		sweep.WithPhaseInterpolation(rate, kind),
		sweep.WithObserver(rec))
	if err != nil {
		return err
	}

	res, runErr := runner.Run(ctx)
	if err := writeSweepTable(a.out, res); err != nil {
		a.logger.Error("failed to write table", slog.String("err", err.Error()))
	}
	return runErr
}

func (a *app) runLevel(ctx context.Context, b *bench) error {
	if b.acq == nil {
		return fmt.Errorf("%w: %s", ErrNoDigitizer, a.cfg.Generator.Transport)
	}

	res, err := a.level(ctx, b)
	if err != nil {
		return err
	}
	return writeLevelResult(a.out, res)
}

// level runs and records one leveling run.
func (a *app) level(ctx context.Context, b *bench) (level.Result, error) {
	lc, err := a.cfg.LevelConfig()
	if err != nil {
		return level.Result{}, err
	}
	est, err := a.estimator()
	if err != nil {
		return level.Result{}, err
	}
	rec, err := a.newRecorder(ctx, storage.KindLevel, a.cfg)
	if err != nil {
		return level.Result{}, err
	}

	l, err := level.NewLeveler(b.gen, b.acq, lc,
		level.WithLogger(a.logger),
		level.WithEstimator(est),
		level.WithStepHandler(rec.ObserveLevelStep))
	if err != nil {
		return level.Result{}, err
	}

	res, err := l.Run(ctx)
	if err != nil {
		return res, err
	}
	rec.saveLevelResult(res)
	return res, nil
}

func (a *app) identify(ctx context.Context, b *bench) error {
	id, err := instrument.Identify(ctx, b.gen)
	if err != nil {
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintf(tw, "Manufacturer\t%s\n", id.Manufacturer)
	fmt.Fprintf(tw, "Model\t%s\n", id.Model)
	fmt.Fprintf(tw, "Serial\t%s\n", id.Serial)
	fmt.Fprintf(tw, "Firmware\t%s\n", id.Firmware)
	return tw.Flush()
}

func (a *app) printScale() error {
	sc, err := a.cfg.SweepConfig()
	if err != nil {
		return err
	}
	return writeScaleTable(a.out, sc.Scale, sc.Sampling)
}

func (a *app) listRuns(ctx context.Context) error {
	if a.store == nil {
		return ErrNoStorage
	}

	runs, err := a.store.Runs(ctx)
	if err != nil {
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintf(tw, "ID\tKind\tName\tStarted\n")
	fmt.Fprintf(tw, "--\t----\t----\t-------\n")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Kind, r.Name, humanize.Time(r.Started))
	}
	return tw.Flush()
}
