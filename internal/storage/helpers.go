package storage

import (
	"database/sql"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(tx *sql.Tx, err *error) {
	if *err == nil {
		return
	}
	_ = tx.Rollback()
}

func nullFloat(v float64, valid bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: valid}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
