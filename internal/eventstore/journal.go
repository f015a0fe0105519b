package eventstore

import (
	"context"
	"os"
	"path/filepath"

	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Journal appends events to a store and keeps a projection current.
type Journal struct {
	store      Store
	projection *RunHistoryProjection
}

// OpenJournal opens the SQLite history at path, creating parent
// directories, and loads the existing history.
func OpenJournal(ctx context.Context, path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create history directory").
				WithContext("path", path).Build()
		}
	}
	store, err := NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	return NewJournal(ctx, store)
}

// NewJournal wraps an existing store.
func NewJournal(ctx context.Context, store Store) (*Journal, error) {
	j := &Journal{store: store, projection: NewRunHistoryProjection(store, 0)}
	if err := j.projection.Rebuild(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

// Record appends events in order and applies each one to the projection.
func (j *Journal) Record(ctx context.Context, events ...Event) error {
	for _, e := range events {
		if err := j.store.Append(ctx, e); err != nil {
			return err
		}
		j.projection.Apply(e)
	}
	return nil
}

func (j *Journal) History() *RunHistoryProjection { return j.projection }

func (j *Journal) Close() error { return j.store.Close() }
