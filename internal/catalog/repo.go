package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printhaus/storefront-api/internal/common"
)

// ErrNotFound is returned when a catalog entity does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Repo reads catalog data from Postgres. Queries are hand-written; the
// catalog is read-only for this service, writes happen in the back office.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo constructs a catalog repository.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ListFilter captures product listing filters.
type ListFilter struct {
	Query  string
	Limit  int
	Offset int
}

// ListItem is the lightweight row used for listing pages.
type ListItem struct {
	ID        uuid.UUID `json:"id"`
	Handle    string    `json:"handle"`
	Title     string    `json:"title"`
	Thumbnail *string   `json:"thumbnail,omitempty"`
}

// ListProducts returns a page of products plus the unfiltered total.
func (r *Repo) ListProducts(ctx context.Context, f ListFilter) ([]ListItem, int64, error) {
	q := strings.TrimSpace(f.Query)
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')`,
		q,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, handle, title, thumbnail
		   FROM products
		  WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
		  ORDER BY title ASC
		  LIMIT $2 OFFSET $3`,
		q, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]ListItem, 0, f.Limit)
	for rows.Next() {
		var item ListItem
		if err := rows.Scan(&item.ID, &item.Handle, &item.Title, &item.Thumbnail); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	return items, total, nil
}

// GetProductByHandle loads a full product including options, variants, their
// option assignments, and price-list amounts scoped to the given region.
func (r *Repo) GetProductByHandle(ctx context.Context, handle string, regionID uuid.UUID) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, handle, title, COALESCE(description, ''), thumbnail,
		        requires_dimensions, requires_artwork
		   FROM products WHERE handle = $1`,
		handle,
	).Scan(&p.ID, &p.Handle, &p.Title, &p.Description, &p.Thumbnail,
		&p.RequiresDimensions, &p.RequiresArtwork)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product by handle: %w", err)
	}
	if err := r.loadOptions(ctx, &p); err != nil {
		return nil, err
	}
	if err := r.loadVariants(ctx, &p, regionID); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductByID loads a full product by identity. Used by selection sessions
// which reference products by id rather than handle.
func (r *Repo) GetProductByID(ctx context.Context, id uuid.UUID, regionID uuid.UUID) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, handle, title, COALESCE(description, ''), thumbnail,
		        requires_dimensions, requires_artwork
		   FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Handle, &p.Title, &p.Description, &p.Thumbnail,
		&p.RequiresDimensions, &p.RequiresArtwork)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	if err := r.loadOptions(ctx, &p); err != nil {
		return nil, err
	}
	if err := r.loadVariants(ctx, &p, regionID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) loadOptions(ctx context.Context, p *Product) error {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.title, COALESCE(array_agg(v.value ORDER BY v.position) FILTER (WHERE v.value IS NOT NULL), '{}')
		   FROM product_options o
		   LEFT JOIN product_option_values v ON v.option_id = o.id
		  WHERE o.product_id = $1
		  GROUP BY o.id, o.title, o.position
		  ORDER BY o.position`,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("list options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var opt Option
		if err := rows.Scan(&opt.ID, &opt.Title, &opt.Values); err != nil {
			return fmt.Errorf("scan option row: %w", err)
		}
		p.Options = append(p.Options, opt)
	}
	return rows.Err()
}

func (r *Repo) loadVariants(ctx context.Context, p *Product, regionID uuid.UUID) error {
	rows, err := r.pool.Query(ctx,
		`SELECT v.id, v.sku, v.manage_inventory, v.allow_backorder, v.inventory_quantity,
		        pr.calculated_amount, pr.original_amount
		   FROM product_variants v
		   LEFT JOIN variant_prices pr ON pr.variant_id = v.id AND pr.region_id = $2
		  WHERE v.product_id = $1
		  ORDER BY v.position`,
		p.ID, regionID,
	)
	if err != nil {
		return fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.SKU, &v.ManageInventory, &v.AllowBackorder,
			&v.InventoryQuantity, &v.CalculatedAmount, &v.OriginalAmount); err != nil {
			return fmt.Errorf("scan variant row: %w", err)
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate variant rows: %w", err)
	}

	for i := range p.Variants {
		assignments, err := r.variantAssignments(ctx, p.Variants[i].ID)
		if err != nil {
			return err
		}
		p.Variants[i].Options = assignments
	}
	return nil
}

func (r *Repo) variantAssignments(ctx context.Context, variantID uuid.UUID) ([]OptionValue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT option_id, value FROM variant_option_assignments WHERE variant_id = $1`,
		variantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list variant assignments: %w", err)
	}
	defer rows.Close()
	var out []OptionValue
	for rows.Next() {
		var ov OptionValue
		if err := rows.Scan(&ov.OptionID, &ov.Value); err != nil {
			return nil, fmt.Errorf("scan assignment row: %w", err)
		}
		out = append(out, ov)
	}
	return out, rows.Err()
}

// ListRegions returns all sales regions sorted by name.
func (r *Repo) ListRegions(ctx context.Context) ([]Region, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, currency_code, locale FROM regions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()
	var out []Region
	for rows.Next() {
		var reg Region
		if err := rows.Scan(&reg.ID, &reg.Name, &reg.CurrencyCode, &reg.Locale); err != nil {
			return nil, fmt.Errorf("scan region row: %w", err)
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// GetRegion returns a single region by identity.
func (r *Repo) GetRegion(ctx context.Context, id uuid.UUID) (Region, error) {
	var reg Region
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, currency_code, locale FROM regions WHERE id = $1`, id,
	).Scan(&reg.ID, &reg.Name, &reg.CurrencyCode, &reg.Locale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Region{}, ErrNotFound
		}
		return Region{}, fmt.Errorf("get region: %w", err)
	}
	return reg, nil
}

func notFoundErr(entity string) *common.AppError {
	return &common.AppError{
		Code:       common.CodeNotFound,
		Message:    entity + " not found",
		HTTPStatus: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}
