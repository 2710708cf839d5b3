package seller

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/ekalkan/pazaryeri/internal/domain/shipping"
)

// Service drives the application flow. Approval provisions the seller's
// default shipping configuration so checkout never sees a missing config.
type Service struct {
	repo     Repository
	shipping shipping.Repository
	now      func() time.Time
}

// NewService creates a seller Service.
func NewService(repo Repository, configs shipping.Repository) *Service {
	return &Service{repo: repo, shipping: configs, now: time.Now}
}

// Apply submits a new application. A rejected account may apply again; an
// account with a pending or approved application may not.
func (s *Service) Apply(ctx context.Context, accountID, email, shopName string) (*Application, error) {
	_, err := s.repo.FindOpenByAccount(ctx, accountID)
	if err == nil {
		return nil, ErrAlreadyApplied
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "find application")
	}

	a := &Application{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Email:     email,
		ShopName:  shopName,
		Status:    StatusPending,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, errors.Wrap(err, "create application")
	}
	return a, nil
}

// Pending lists applications awaiting review.
func (s *Service) Pending(ctx context.Context) ([]Application, error) {
	return s.repo.ListPending(ctx)
}

// Approve accepts a pending application and creates the seller's default
// shipping config with a zero flat fee.
func (s *Service) Approve(ctx context.Context, id string) (*Application, error) {
	a, err := s.decide(ctx, id, StatusApproved)
	if err != nil {
		return nil, err
	}
	if err := s.shipping.Upsert(ctx, shipping.SellerConfig{SellerID: a.AccountID}); err != nil {
		return nil, errors.Wrap(err, "provision shipping config")
	}
	return a, nil
}

// Reject declines a pending application.
func (s *Service) Reject(ctx context.Context, id string) (*Application, error) {
	return s.decide(ctx, id, StatusRejected)
}

func (s *Service) decide(ctx context.Context, id string, to Status) (*Application, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPending {
		return nil, ErrNotPending
	}

	now := s.now()
	a.Status = to
	a.DecidedAt = &now
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, errors.Wrap(err, "update application")
	}
	return a, nil
}
