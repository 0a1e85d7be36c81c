package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cwbudde/algo-audiotest/control/pid"
	"github.com/cwbudde/algo-audiotest/measure/level"
	"github.com/cwbudde/algo-audiotest/measure/sweep"
)

var (
	ErrNotFound = errors.New("storage: not found")
	ErrClosed   = errors.New("storage: store closed")
)

// Kind tells what a run measured.
type Kind string

const (
	KindSweep Kind = "sweep"
	KindLevel Kind = "level"
)

// Run describes one stored measurement session.
type Run struct {
	ID      uuid.UUID
	Kind    Kind
	Name    string
	Started time.Time
	// Config is the JSON encoded configuration the run was started with.
	Config *string
}

// LevelResult is the stored outcome of a leveling run.
type LevelResult struct {
	Amplitude  float64
	RMS        float64
	GainDB     float64
	Iterations int
}

// Store handles database operations.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool

	closeOnce sync.Once
	closeErr  error
}

// Open opens (creating if needed) the database at path and initializes the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=1"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err = db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	return s.db, nil
}

// CreateRun registers a new run and returns its identifier. config may be a
// string, a byte slice or any value that encodes to JSON; nil stores no
// configuration.
func (s *Store) CreateRun(ctx context.Context, kind Kind, name string, config any) (id uuid.UUID, err error) {
	var configData sql.NullString

	switch c := config.(type) {
	case nil:
	case string:
		configData = sql.NullString{String: c, Valid: true}
	case []byte:
		configData = sql.NullString{String: string(c), Valid: true}
	default:
		var p []byte
		if p, err = json.Marshal(c); err != nil {
			err = fmt.Errorf("marshaling config: %w", err)
			return
		}
		configData = sql.NullString{String: string(p), Valid: true}
	}

	db, err := s.conn()
	if err != nil {
		return
	}

	stmt, err := db.PrepareContext(ctx, insertRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	runID := uuid.New()
	if _, err = stmt.ExecContext(ctx, runID.String(), string(kind), name, time.Now().UTC(), configData); err != nil {
		err = fmt.Errorf("inserting run: %w", err)
		return
	}

	return runID, nil
}

// Run returns the run with the given identifier.
func (s *Store) Run(ctx context.Context, id uuid.UUID) (run Run, err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	stmt, err := db.PrepareContext(ctx, selectRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	run, err = scanRun(stmt.QueryRowContext(ctx, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	return
}

// Runs lists all runs ordered by start time.
func (s *Store) Runs(ctx context.Context) (runs []Run, err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	rows, err := db.QueryContext(ctx, selectRunsSQL)
	if err != nil {
		err = fmt.Errorf("querying runs: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var run Run
		if run, err = scanRun(rows); err != nil {
			return
		}
		runs = append(runs, run)
	}
	err = rows.Err()
	return
}

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var (
		run    Run
		id     string
		kind   string
		config sql.NullString
	)
	if err := row.Scan(&id, &kind, &run.Name, &run.Started, &config); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("parsing run id: %w", err)
	}
	run.ID = parsed
	run.Kind = Kind(kind)
	if config.Valid {
		run.Config = &config.String
	}
	return run, nil
}

// InsertPoint stores the idx-th measured point of a sweep run.
func (s *Store) InsertPoint(ctx context.Context, runID uuid.UUID, idx int, rec sweep.Record) (err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	stmt, err := db.PrepareContext(ctx, insertPointSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if err = execPoint(ctx, stmt, runID, idx, rec); err != nil {
		return fmt.Errorf("inserting point: %w", err)
	}
	return nil
}

func execPoint(ctx context.Context, stmt *sql.Stmt, runID uuid.UUID, idx int, rec sweep.Record) error {
	_, err := stmt.ExecContext(ctx,
		runID.String(),
		idx,
		rec.Frequency,
		rec.SamplingFrequency,
		rec.OversamplingRatio,
		rec.Periods,
		rec.Samples,
		rec.RMS,
		rec.GainDB,
		nullFloat(rec.Phase, rec.HasPhase),
		rec.Min,
		rec.Max,
		boolInt(rec.Trimmed),
	)
	return err
}

// InsertSkip stores a frequency that a sweep run could not measure.
func (s *Store) InsertSkip(ctx context.Context, runID uuid.UUID, skip sweep.Skip) (err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	if _, err = db.ExecContext(ctx, insertSkipSQL, runID.String(), skip.Frequency, skipText(skip)); err != nil {
		return fmt.Errorf("inserting skip: %w", err)
	}
	return nil
}

func skipText(skip sweep.Skip) string {
	if skip.Err == nil {
		return ""
	}
	return skip.Err.Error()
}

// SaveSweep stores all points and skips of a finished sweep in a single
// transaction. It is meant for runs that were not streamed point by point.
func (s *Store) SaveSweep(ctx context.Context, runID uuid.UUID, res sweep.Result) (err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, insertPointSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for i, rec := range res.Points {
		if err = execPoint(ctx, stmt, runID, i, rec); err != nil {
			return fmt.Errorf("inserting point %d: %w", i, err)
		}
	}
	for _, skip := range res.Skipped {
		if _, err = tx.ExecContext(ctx, insertSkipSQL, runID.String(), skip.Frequency, skipText(skip)); err != nil {
			return fmt.Errorf("inserting skip: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Points returns the stored points of a sweep run in measurement order.
func (s *Store) Points(ctx context.Context, runID uuid.UUID) (points []sweep.Record, err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	rows, err := db.QueryContext(ctx, selectPointsSQL, runID.String())
	if err != nil {
		err = fmt.Errorf("querying points: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var (
			rec     sweep.Record
			phase   sql.NullFloat64
			trimmed int
		)
		if err = rows.Scan(
			&rec.Frequency,
			&rec.SamplingFrequency,
			&rec.OversamplingRatio,
			&rec.Periods,
			&rec.Samples,
			&rec.RMS,
			&rec.GainDB,
			&phase,
			&rec.Min,
			&rec.Max,
			&trimmed,
		); err != nil {
			err = fmt.Errorf("scanning point: %w", err)
			return
		}
		rec.Phase, rec.HasPhase = phase.Float64, phase.Valid
		rec.Trimmed = trimmed != 0
		points = append(points, rec)
	}
	err = rows.Err()
	return
}

// Skips returns the frequencies a sweep run skipped. The original error
// values are not preserved, only their text.
func (s *Store) Skips(ctx context.Context, runID uuid.UUID) (skips []sweep.Skip, err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	rows, err := db.QueryContext(ctx, selectSkipsSQL, runID.String())
	if err != nil {
		err = fmt.Errorf("querying skips: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var (
			skip sweep.Skip
			text string
		)
		if err = rows.Scan(&skip.Frequency, &text); err != nil {
			err = fmt.Errorf("scanning skip: %w", err)
			return
		}
		if text != "" {
			skip.Err = errors.New(text)
		}
		skips = append(skips, skip)
	}
	err = rows.Err()
	return
}

// InsertLevelStep stores one iteration of a leveling run.
func (s *Store) InsertLevelStep(ctx context.Context, runID uuid.UUID, step level.Step) (err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	stmt, err := db.PrepareContext(ctx, insertLevelStepSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if _, err = stmt.ExecContext(ctx,
		runID.String(),
		step.Iteration,
		step.Amplitude,
		step.RMS,
		step.Error,
		step.GainDB,
		step.Control.Proportional,
		step.Control.Integral,
		step.Control.Derivative,
		step.Control.Output,
		boolInt(step.Control.Clamped),
		boolInt(step.Converged),
	); err != nil {
		return fmt.Errorf("inserting level step: %w", err)
	}
	return nil
}

// LevelSteps returns the stored iterations of a leveling run. Only the
// controller terms, output and clamp flag are stored; Control.Error and
// Control.Raw are left zero.
func (s *Store) LevelSteps(ctx context.Context, runID uuid.UUID) (steps []level.Step, err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	rows, err := db.QueryContext(ctx, selectLevelStepsSQL, runID.String())
	if err != nil {
		err = fmt.Errorf("querying level steps: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var (
			step               level.Step
			ctl                pid.Iteration
			clamped, converged int
		)
		if err = rows.Scan(
			&step.Iteration,
			&step.Amplitude,
			&step.RMS,
			&step.Error,
			&step.GainDB,
			&ctl.Proportional,
			&ctl.Integral,
			&ctl.Derivative,
			&ctl.Output,
			&clamped,
			&converged,
		); err != nil {
			err = fmt.Errorf("scanning level step: %w", err)
			return
		}
		ctl.Clamped = clamped != 0
		step.Control = ctl
		step.Converged = converged != 0
		steps = append(steps, step)
	}
	err = rows.Err()
	return
}

// SaveLevelResult stores the outcome of a leveling run, replacing any
// earlier result for the same run.
func (s *Store) SaveLevelResult(ctx context.Context, runID uuid.UUID, res level.Result) (err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	if _, err = db.ExecContext(ctx, upsertLevelResultSQL,
		runID.String(), res.Amplitude, res.RMS, res.GainDB, res.Iterations); err != nil {
		return fmt.Errorf("saving level result: %w", err)
	}
	return nil
}

// LevelResult returns the stored outcome of a leveling run.
func (s *Store) LevelResult(ctx context.Context, runID uuid.UUID) (res LevelResult, err error) {
	db, err := s.conn()
	if err != nil {
		return
	}

	err = db.QueryRowContext(ctx, selectLevelResultSQL, runID.String()).
		Scan(&res.Amplitude, &res.RMS, &res.GainDB, &res.Iterations)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = fmt.Errorf("%w: level result for run %s", ErrNotFound, runID)
	case err != nil:
		err = fmt.Errorf("scanning level result: %w", err)
	}
	return
}

// Close closes the database. Calling Close more than once is safe.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.closed = true
		s.closeErr = s.db.Close()
	})

	return s.closeErr
}
