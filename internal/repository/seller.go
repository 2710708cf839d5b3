package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekalkan/pazaryeri/internal/domain/seller"
)

const (
	applicationColumns = `id, account_id, email, shop_name, status, created_at, decided_at`

	getApplicationSQL = `SELECT ` + applicationColumns + `
		FROM seller_applications WHERE id = $1`

	findOpenApplicationSQL = `SELECT ` + applicationColumns + `
		FROM seller_applications WHERE account_id = $1 AND status <> 'rejected' LIMIT 1`

	listPendingApplicationsSQL = `SELECT ` + applicationColumns + `
		FROM seller_applications WHERE status = 'pending' ORDER BY created_at`

	createApplicationSQL = `INSERT INTO seller_applications
		(id, account_id, email, shop_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateApplicationSQL = `UPDATE seller_applications
		SET status = $2, decided_at = $3 WHERE id = $1`
)

var _ seller.Repository = (*SellerApplicationRepository)(nil)

// SellerApplicationRepository implements seller.Repository backed by
// PostgreSQL.
type SellerApplicationRepository struct {
	pool *pgxpool.Pool
}

// NewSellerApplicationRepository returns a SellerApplicationRepository that
// uses the given pool.
func NewSellerApplicationRepository(pool *pgxpool.Pool) *SellerApplicationRepository {
	return &SellerApplicationRepository{pool: pool}
}

// GetByID returns an application by id.
func (r *SellerApplicationRepository) GetByID(ctx context.Context, id string) (*seller.Application, error) {
	return r.one(ctx, getApplicationSQL, id)
}

// FindOpenByAccount returns the account's pending or approved application.
func (r *SellerApplicationRepository) FindOpenByAccount(ctx context.Context, accountID string) (*seller.Application, error) {
	return r.one(ctx, findOpenApplicationSQL, accountID)
}

func (r *SellerApplicationRepository) one(ctx context.Context, query, arg string) (*seller.Application, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying application: %w", err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanApplication)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, seller.ErrNotFound
		}
		return nil, fmt.Errorf("querying application: %w", err)
	}
	return &a, nil
}

// ListPending returns applications awaiting review, oldest first.
func (r *SellerApplicationRepository) ListPending(ctx context.Context) ([]seller.Application, error) {
	rows, err := r.pool.Query(ctx, listPendingApplicationsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing pending applications: %w", err)
	}
	return pgx.CollectRows(rows, scanApplication)
}

// Create persists a new application.
func (r *SellerApplicationRepository) Create(ctx context.Context, a *seller.Application) error {
	_, err := r.pool.Exec(ctx, createApplicationSQL,
		a.ID, a.AccountID, a.Email, a.ShopName, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating application %q: %w", a.ID, err)
	}
	return nil
}

// Update saves the review decision.
func (r *SellerApplicationRepository) Update(ctx context.Context, a *seller.Application) error {
	tag, err := r.pool.Exec(ctx, updateApplicationSQL, a.ID, a.Status, a.DecidedAt)
	if err != nil {
		return fmt.Errorf("updating application %q: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return seller.ErrNotFound
	}
	return nil
}

func scanApplication(row pgx.CollectableRow) (seller.Application, error) {
	var a seller.Application
	err := row.Scan(&a.ID, &a.AccountID, &a.Email, &a.ShopName, &a.Status, &a.CreatedAt, &a.DecidedAt)
	return a, err
}
