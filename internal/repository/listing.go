package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekalkan/pazaryeri/internal/domain/listing"
)

const (
	listingColumns = `id, seller_id, seller_email, title, description, price, discounted_price,
		stock, category, images, variants, boosted, boost_expires_at, created_at`

	getListingByIDSQL  = `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	getListingsByIDSQL = `SELECT ` + listingColumns + ` FROM listings WHERE id = ANY($1)`

	createListingSQL = `INSERT INTO listings
		(id, seller_id, seller_email, title, description, price, discounted_price,
		 stock, category, images, variants, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	updateListingSQL = `UPDATE listings SET
		title = $2, description = $3, price = $4, discounted_price = $5,
		stock = $6, category = $7, images = $8, variants = $9
		WHERE id = $1`

	deleteListingSQL = `DELETE FROM listings WHERE id = $1`

	setBoostSQL = `UPDATE listings SET boosted = $2, boost_expires_at = $3 WHERE id = $1`

	clearExpiredBoostsSQL = `UPDATE listings SET boosted = FALSE, boost_expires_at = NULL
		WHERE boosted AND boost_expires_at IS NOT NULL AND boost_expires_at <= $1`
)

var _ listing.Repository = (*ListingRepository)(nil)

// ListingRepository implements listing.Repository backed by PostgreSQL.
type ListingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository returns a ListingRepository that uses the given pool.
func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

// List returns listings matching the filter, newest first.
func (r *ListingRepository) List(ctx context.Context, f listing.Filter) ([]listing.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE TRUE`
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.SellerID != "" {
		args = append(args, f.SellerID)
		query += fmt.Sprintf(" AND seller_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	return pgx.CollectRows(rows, scanListing)
}

// GetByID returns a single listing by its identifier.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*listing.Listing, error) {
	rows, err := r.pool.Query(ctx, getListingByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting listing %q: %w", id, err)
	}

	l, err := pgx.CollectExactlyOneRow(rows, scanListing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, listing.ErrNotFound
		}
		return nil, fmt.Errorf("getting listing %q: %w", id, err)
	}
	return &l, nil
}

// GetByIDs returns listings matching any of the given IDs.
func (r *ListingRepository) GetByIDs(ctx context.Context, ids []string) ([]listing.Listing, error) {
	rows, err := r.pool.Query(ctx, getListingsByIDSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting listings by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanListing)
}

// Create persists a new listing.
func (r *ListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	images, variants, err := marshalListingJSON(l)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, createListingSQL,
		l.ID, l.SellerID, l.SellerEmail, l.Title, l.Description,
		l.Price, l.DiscountedPrice, l.Stock, l.Category,
		images, variants, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating listing %q: %w", l.ID, err)
	}
	return nil
}

// Update rewrites the listing's editable fields.
func (r *ListingRepository) Update(ctx context.Context, l *listing.Listing) error {
	images, variants, err := marshalListingJSON(l)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, updateListingSQL,
		l.ID, l.Title, l.Description, l.Price, l.DiscountedPrice,
		l.Stock, l.Category, images, variants,
	)
	if err != nil {
		return fmt.Errorf("updating listing %q: %w", l.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return listing.ErrNotFound
	}
	return nil
}

// Delete removes the listing.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteListingSQL, id)
	if err != nil {
		return fmt.Errorf("deleting listing %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return listing.ErrNotFound
	}
	return nil
}

// SetBoost sets the boost flag and expiry on a listing.
func (r *ListingRepository) SetBoost(ctx context.Context, id string, boosted bool, expiresAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, setBoostSQL, id, boosted, expiresAt)
	if err != nil {
		return fmt.Errorf("setting boost on %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return listing.ErrNotFound
	}
	return nil
}

// ClearExpiredBoosts unsets the flag on listings whose expiry has passed.
func (r *ListingRepository) ClearExpiredBoosts(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, clearExpiredBoostsSQL, now)
	if err != nil {
		return 0, fmt.Errorf("clearing expired boosts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func marshalListingJSON(l *listing.Listing) (images, variants []byte, err error) {
	if images, err = json.Marshal(l.Images); err != nil {
		return nil, nil, fmt.Errorf("marshaling images: %w", err)
	}
	if l.Variants == nil {
		variants = []byte("{}")
	} else if variants, err = json.Marshal(l.Variants); err != nil {
		return nil, nil, fmt.Errorf("marshaling variants: %w", err)
	}
	return images, variants, nil
}

func scanListing(row pgx.CollectableRow) (listing.Listing, error) {
	var (
		l                listing.Listing
		images, variants []byte
	)
	err := row.Scan(
		&l.ID, &l.SellerID, &l.SellerEmail, &l.Title, &l.Description,
		&l.Price, &l.DiscountedPrice, &l.Stock, &l.Category,
		&images, &variants, &l.Boosted, &l.BoostExpiresAt, &l.CreatedAt,
	)
	if err != nil {
		return l, err
	}
	if err := json.Unmarshal(images, &l.Images); err != nil {
		return l, fmt.Errorf("unmarshaling images: %w", err)
	}
	if err := json.Unmarshal(variants, &l.Variants); err != nil {
		return l, fmt.Errorf("unmarshaling variants: %w", err)
	}
	return l, nil
}
