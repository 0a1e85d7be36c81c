package storage

import (
	_ "embed"
)

const (
	insertRunSQL = `
INSERT INTO runs (id,
                  kind,
                  name,
                  started_at,
                  config)
VALUES (?, ?, ?, ?, ?)`

	selectRunSQL = `
SELECT 
    id, 
    kind, 
    name, 
    started_at, 
    config 
FROM runs 
WHERE 
    id = ?`

	selectRunsSQL = `
SELECT 
    id, 
    kind, 
    name, 
    started_at, 
    config 
FROM runs
ORDER BY started_at, rowid`

	insertPointSQL = `
INSERT INTO sweep_points (run_id,
                          idx,
                          frequency,
                          sampling_frequency,
                          oversampling_ratio,
                          periods,
                          samples,
                          rms,
                          gain_db,
                          phase,
                          min_voltage,
                          max_voltage,
                          trimmed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectPointsSQL = `
SELECT 
    frequency,
    sampling_frequency,
    oversampling_ratio,
    periods,
    samples,
    rms,
    gain_db,
    phase,
    min_voltage,
    max_voltage,
    trimmed
FROM sweep_points
WHERE 
    run_id = ?
ORDER BY idx`

	insertSkipSQL = `
INSERT INTO sweep_skips (run_id,
                         frequency,
                         error)
VALUES (?, ?, ?)`

	selectSkipsSQL = `
SELECT 
    frequency,
    error
FROM sweep_skips
WHERE 
    run_id = ?
ORDER BY rowid`

	insertLevelStepSQL = `
INSERT INTO level_steps (run_id,
                         iteration,
                         amplitude,
                         rms,
                         error,
                         gain_db,
                         proportional,
                         integral,
                         derivative,
                         output,
                         clamped,
                         converged)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectLevelStepsSQL = `
SELECT 
    iteration,
    amplitude,
    rms,
    error,
    gain_db,
    proportional,
    integral,
    derivative,
    output,
    clamped,
    converged
FROM level_steps
WHERE 
    run_id = ?
ORDER BY iteration`

	upsertLevelResultSQL = `
INSERT INTO level_results (run_id,
                           amplitude,
                           rms,
                           gain_db,
                           iterations)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (run_id) DO UPDATE SET amplitude  = excluded.amplitude,
                                   rms        = excluded.rms,
                                   gain_db    = excluded.gain_db,
                                   iterations = excluded.iterations`

	selectLevelResultSQL = `
SELECT 
    amplitude,
    rms,
    gain_db,
    iterations
FROM level_results
WHERE 
    run_id = ?`
)

//go:embed schema.sql
var schemaSQL string
