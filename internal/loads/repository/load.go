package repository

import (
	"context"

	"freightline/pkg/model"
)

// LoadStore is the abstract store the catalog runs against. Persistence
// technology is swappable; the only contract is that UpdateStatus is a
// compare-and-swap keyed on the current status.
type LoadStore interface {
	Get(ctx context.Context, id string) (*model.Load, error)
	List(ctx context.Context) ([]*model.Load, error)

	// UpdateStatus atomically moves the load from `from` to `to`. Returns
	// loads/errors.ErrStatusConflict when the current status is not `from`,
	// loads/errors.ErrNotFound when the load does not exist.
	UpdateStatus(ctx context.Context, id string, from, to model.LoadStatus) error

	CountByStatus(ctx context.Context) (map[model.LoadStatus]int64, error)
}
