package repository

import (
	"context"

	"freightline/pkg/model"
)

// BookingStore persists confirmed bookings. Implementations must enforce at
// most one booking per load and surface ErrAlreadyBooked on a second write.
type BookingStore interface {
	Create(ctx context.Context, booking *model.BookingRecord) error
	Get(ctx context.Context, id string) (*model.BookingRecord, error)
	FindByLoad(ctx context.Context, loadID string) (*model.BookingRecord, error)
	List(ctx context.Context) ([]*model.BookingRecord, error)
	Count(ctx context.Context) (int64, error)
}
