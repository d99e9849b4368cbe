package repository

import (
	"context"
	"time"

	"freightline/pkg/model"
)

// SessionStore is the abstract registry of negotiation sessions. Terminal
// sessions are archived in place; only Open sessions block a load.
type SessionStore interface {
	// Create fails with negotiation/errors.ErrOpenSessionExists when the load
	// already has an Open session.
	Create(ctx context.Context, session *model.NegotiationSession) error
	Get(ctx context.Context, id string) (*model.NegotiationSession, error)
	Update(ctx context.Context, session *model.NegotiationSession) error

	// FindCurrentByLoad returns the load's Open or Accepted session, if any.
	// At most one exists: Accepted keeps the load in negotiating status, so no
	// further session can be started until the load is released or booked.
	FindCurrentByLoad(ctx context.Context, loadID string) (*model.NegotiationSession, error)

	// ListIdleOpen returns Open sessions not updated since the cutoff.
	ListIdleOpen(ctx context.Context, cutoff time.Time) ([]*model.NegotiationSession, error)

	Count(ctx context.Context) (int64, error)
}
