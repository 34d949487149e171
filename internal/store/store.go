// Package store is the local persistence layer: an embedded relational
// database (stoolap) plus a change notifier that lets repositories expose
// live queries without polling.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/stoolap/stoolap/pkg/driver"
)

// ErrDuplicate reports a unique-key conflict (duplicate email, duplicate
// favorite pair, ...). Callers match it with errors.Is.
var ErrDuplicate = errors.New("duplicate key")

type Store struct {
	DB       *sql.DB
	notifier *notifier
}

// Open connects to the embedded database. The driver takes file://<path>
// connection strings.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("stoolap", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{DB: db, notifier: newNotifier()}, nil
}

func (s *Store) Close() error {
	s.notifier.closeAll()
	return s.DB.Close()
}

// MapErr folds engine constraint errors into the store's error taxonomy.
// Anything else passes through unchanged.
func MapErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "primary key constraint") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
