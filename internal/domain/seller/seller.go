// Package seller handles seller onboarding: a buyer applies with a shop name,
// an admin approves or rejects.
package seller

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when an application does not exist.
	ErrNotFound = errors.New("application not found")
	// ErrAlreadyApplied is returned when the account has an open application.
	ErrAlreadyApplied = errors.New("application already submitted")
	// ErrNotPending is returned when deciding an already decided application.
	ErrNotPending = errors.New("application already decided")
)

// Status is the review state of a seller application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Application is one account's request to sell on the marketplace.
type Application struct {
	ID        string
	AccountID string
	Email     string
	ShopName  string
	Status    Status
	CreatedAt time.Time
	DecidedAt *time.Time
}

// Repository defines persistence for seller applications.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Application, error)
	// FindOpenByAccount returns the account's pending or approved application,
	// or ErrNotFound.
	FindOpenByAccount(ctx context.Context, accountID string) (*Application, error)
	ListPending(ctx context.Context) ([]Application, error)
	Create(ctx context.Context, a *Application) error
	Update(ctx context.Context, a *Application) error
}
