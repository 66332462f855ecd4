// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidCheckpoint is returned when a stored checkpoint is not a date.
var ErrInvalidCheckpoint = errors.New("invalid checkpoint value")

// DateLayout is the format checkpoints are stored in.
const DateLayout = "2006-01-02"

// Storage is the interface for all persistence operations.
type Storage interface {
	// LastUpdate returns the date of the last completed check, or nil when
	// no check has completed yet.
	LastUpdate(ctx context.Context) (*time.Time, error)
	SetLastUpdate(ctx context.Context, date time.Time) error

	Close() error
}
