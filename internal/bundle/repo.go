package bundle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a bundle does not exist.
var ErrNotFound = errors.New("bundle: not found")

// Repo reads bundle data from Postgres. Like the catalog, bundles are
// read-only here; composition is managed in the back office.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo constructs a bundle repository.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ListBundles returns all published bundles with their items and region-scoped
// item prices.
func (r *Repo) ListBundles(ctx context.Context, regionID uuid.UUID) ([]Bundle, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, handle, title, COALESCE(description, ''), thumbnail
		   FROM bundles
		  WHERE published
		  ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	defer rows.Close()

	var out []Bundle
	for rows.Next() {
		var b Bundle
		if err := rows.Scan(&b.ID, &b.Handle, &b.Title, &b.Description, &b.Thumbnail); err != nil {
			return nil, fmt.Errorf("scan bundle row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bundle rows: %w", err)
	}

	for i := range out {
		items, err := r.loadItems(ctx, out[i].ID, regionID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// GetBundle loads one bundle with items and region-scoped prices.
func (r *Repo) GetBundle(ctx context.Context, id uuid.UUID, regionID uuid.UUID) (*Bundle, error) {
	var b Bundle
	err := r.pool.QueryRow(ctx,
		`SELECT id, handle, title, COALESCE(description, ''), thumbnail
		   FROM bundles
		  WHERE id = $1 AND published`,
		id,
	).Scan(&b.ID, &b.Handle, &b.Title, &b.Description, &b.Thumbnail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get bundle: %w", err)
	}
	items, err := r.loadItems(ctx, b.ID, regionID)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return &b, nil
}

func (r *Repo) loadItems(ctx context.Context, bundleID uuid.UUID, regionID uuid.UUID) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, p.id, p.handle, i.variant_id, p.title, p.thumbnail, i.quantity,
		        pr.calculated_amount, pr.original_amount
		   FROM bundle_items i
		   JOIN product_variants v ON v.id = i.variant_id
		   JOIN products p ON p.id = v.product_id
		   LEFT JOIN variant_prices pr ON pr.variant_id = i.variant_id AND pr.region_id = $2
		  WHERE i.bundle_id = $1
		  ORDER BY i.position`,
		bundleID, regionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bundle items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductHandle, &it.VariantID,
			&it.Title, &it.Thumbnail, &it.Quantity,
			&it.CalculatedAmount, &it.OriginalAmount); err != nil {
			return nil, fmt.Errorf("scan bundle item row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
