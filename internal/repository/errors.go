package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Conditional updates report these when no row matched the guard.
var (
	ErrStockInsuficiente = errors.New("stock insuficiente")
	ErrTurnoNoCobrable   = errors.New("turno no cobrable")
)

// IsNotFound reports whether err is GORM's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports a unique-constraint violation. Requires the DB to be
// opened with TranslateError.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// conn picks the transaction when one is in progress.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
