package competitiondb

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("competition record not found")
	// ErrDuplicateReport is returned when a detachment already reported a metric.
	ErrDuplicateReport = errors.New("report already exists for this detachment and metric")
	// ErrPairingConflict is returned when a detachment is already part of a tandem.
	ErrPairingConflict = errors.New("detachment is already paired in this competition")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == uniqueViolation
	}
	return false
}
