package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-audiotest/internal/config"
	"github.com/cwbudde/algo-audiotest/internal/metrics"
	"github.com/cwbudde/algo-audiotest/internal/storage"
	"github.com/cwbudde/algo-audiotest/measure/level"
	"github.com/cwbudde/algo-audiotest/measure/sweep"
)

// recorder forwards sweep points and leveling steps to storage and
// metrics. Storage failures are logged and do not stop the measurement.
type recorder struct {
	ctx     context.Context
	store   *storage.Store
	runID   uuid.UUID
	metrics *metrics.Metrics
	logger  *slog.Logger
	points  int
}

// newRecorder creates a run of kind that stores cfg as its configuration.
func (a *app) newRecorder(ctx context.Context, kind storage.Kind, cfg *config.Config) (*recorder, error) {
	r := &recorder{
		ctx:     context.WithoutCancel(ctx),
		store:   a.store,
		metrics: a.metrics,
		logger:  a.logger,
	}
	if a.store == nil {
		return r, nil
	}

	id, err := a.store.CreateRun(ctx, kind, cfg.Settings.Name, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	r.runID = id
	r.logger = a.logger.With(slog.String("run", id.String()))
	r.logger.Info("run created", slog.String("kind", string(kind)))
	return r, nil
}

func (r *recorder) ObservePoint(rec sweep.Record) {
	r.metrics.ObservePoint(rec)
	r.logger.Info(fmt.Sprintf("measured %s", formatHz(rec.Frequency)),
		slog.Float64("gain_db", rec.GainDB),
		slog.Float64("rms", rec.RMS))

	if r.store != nil {
		if err := r.store.InsertPoint(r.ctx, r.runID, r.points, rec); err != nil {
			r.logger.Warn("failed to store point", slog.Float64("frequency", rec.Frequency), slog.String("err", err.Error()))
		}
	}
	r.points++
}

func (r *recorder) ObserveSkip(skip sweep.Skip) {
	r.metrics.ObserveSkip(skip)

	if r.store != nil {
		if err := r.store.InsertSkip(r.ctx, r.runID, skip); err != nil {
			r.logger.Warn("failed to store skip", slog.Float64("frequency", skip.Frequency), slog.String("err", err.Error()))
		}
	}
}

func (r *recorder) ObserveLevelStep(step level.Step) {
	r.metrics.ObserveLevelStep(step)

	if r.store != nil {
		if err := r.store.InsertLevelStep(r.ctx, r.runID, step); err != nil {
			r.logger.Warn("failed to store level step", slog.Int("iteration", step.Iteration), slog.String("err", err.Error()))
		}
	}
}

func (r *recorder) saveLevelResult(res level.Result) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveLevelResult(r.ctx, r.runID, res); err != nil {
		r.logger.Warn("failed to store level result", slog.String("err", err.Error()))
	}
}
