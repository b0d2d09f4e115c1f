package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"trash-notify/internal/weekly"
)

var (
	// ErrNotFound indicates no record exists for the requested user id.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable wraps every failure of the backing store.
	ErrUnavailable = errors.New("store unavailable")
)

// Field names a single updatable attribute of a persisted record.
type Field string

const (
	FieldName    Field = "name"
	FieldSetting Field = "setting"
	FieldState   Field = "state"
)

// Store is the key-value contract over the user record table. Every
// operation touches one record or scans all of them; there are no
// transactions.
type Store interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error

	// Records
	Get(ctx context.Context, id string) (*weekly.Record, error)
	Put(ctx context.Context, rec *weekly.Record) error
	UpdateField(ctx context.Context, id string, field Field, value any) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]weekly.Record, error)
}

// Migrator is implemented by stores that keep a schema.
type Migrator interface {
	RunMigrations(ctx context.Context, filesystem fs.FS) error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
