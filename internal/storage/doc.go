// Package storage persists measurement runs in SQLite.
//
// A run is either a frequency sweep or an amplitude leveling session. Sweep
// runs store one row per measured frequency plus the frequencies that were
// skipped; leveling runs store every controller iteration and the final
// result. Run identifiers are random UUIDs so databases from several benches
// can be merged.
package storage
