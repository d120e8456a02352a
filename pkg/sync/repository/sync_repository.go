package repository

import (
	"context"
	"errors"
	"time"

	"cuaderno/entities"
)

// ErrConflict means a pushed record changed on the server after the
// client's last pull.
var ErrConflict = errors.New("sync conflict")

// ErrForeignID means a pushed id belongs to another user.
var ErrForeignID = errors.New("id owned by another user")

type TableChanges[T any] struct {
	Created []T      `json:"created"`
	Updated []T      `json:"updated"`
	Deleted []string `json:"deleted"`
}

type Changes struct {
	Parcelas    TableChanges[entities.Parcela]   `json:"parcelas"`
	Actividades TableChanges[entities.Actividad] `json:"actividades"`
}

// Conflict describes the record that stopped a push.
type Conflict struct {
	Table string
	ID    string
	Err   error
}

func (c *Conflict) Error() string { return c.Table + " " + c.ID + ": " + c.Err.Error() }
func (c *Conflict) Unwrap() error { return c.Err }

type SyncRepository interface {
	// Changed lists the user's records touched after since; a zero since
	// returns every live record as created.
	Changed(ctx context.Context, uid string, since time.Time) (*Changes, error)
	// Apply writes the client's changes in a single transaction.
	Apply(ctx context.Context, uid string, since time.Time, ch *Changes) error
}
