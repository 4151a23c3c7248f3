package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/database"
	apperrors "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/errors"
)

const savedColumns = `product_id, title, COALESCE(custom_title, ''), COALESCE(main_image_url, ''),
	COALESCE(video_url, ''), sale_price::text, original_price::text, currency, rating::text,
	sales_volume, COALESCE(promotion_link, ''), COALESCE(detail_url, ''), COALESCE(shop_title, ''),
	COALESCE(shop_url, ''), saved_at, created_at, updated_at`

var savedOrder = map[string]string{
	domain.SavedSortSavedAtDesc: "saved_at DESC, product_id",
	domain.SavedSortSavedAtAsc:  "saved_at ASC, product_id",
	domain.SavedSortTitleAsc:    "lower(COALESCE(NULLIF(custom_title, ''), title)) ASC, product_id",
	domain.SavedSortTitleDesc:   "lower(COALESCE(NULLIF(custom_title, ''), title)) DESC, product_id",
}

// SavedRepository implements repository.SavedRepository on PostgreSQL.
type SavedRepository struct {
	db database.DBTX
}

// NewSavedRepository creates a saved-products repository.
func NewSavedRepository(db database.DBTX) *SavedRepository {
	return &SavedRepository{db: db}
}

var _ repository.SavedRepository = (*SavedRepository)(nil)

// Lookup returns saved state for the given ids in one query.
func (r *SavedRepository) Lookup(ctx context.Context, ids []string) (result map[string]domain.SavedState, err error) {
	result = make(map[string]domain.SavedState)
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT product_id, saved_at, COALESCE(custom_title, '')
		FROM saved_products
		WHERE product_id = ANY($1)`

	ctx, end := database.TraceQuery(ctx, "LookupSaved", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup saved products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			state domain.SavedState
		)
		if err := rows.Scan(&id, &state.SavedAt, &state.CustomTitle); err != nil {
			return nil, fmt.Errorf("scan saved state: %w", err)
		}
		result[id] = state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved state: %w", err)
	}
	return result, nil
}

// Upsert inserts p or refreshes its display fields. An empty CustomTitle
// keeps the stored one.
func (r *SavedRepository) Upsert(ctx context.Context, p *domain.SavedProduct) (inserted bool, err error) {
	query := `
		INSERT INTO saved_products (
			product_id, title, custom_title, main_image_url, video_url, sale_price, original_price,
			currency, rating, sales_volume, promotion_link, detail_url, shop_title, shop_url,
			saved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9::numeric, $10, $11, $12, $13, $14, $15, $15, $15)
		ON CONFLICT (product_id) DO UPDATE SET
			title          = EXCLUDED.title,
			custom_title   = COALESCE(EXCLUDED.custom_title, saved_products.custom_title),
			main_image_url = EXCLUDED.main_image_url,
			video_url      = EXCLUDED.video_url,
			sale_price     = EXCLUDED.sale_price,
			original_price = EXCLUDED.original_price,
			currency       = EXCLUDED.currency,
			rating         = EXCLUDED.rating,
			sales_volume   = EXCLUDED.sales_volume,
			promotion_link = EXCLUDED.promotion_link,
			detail_url     = EXCLUDED.detail_url,
			shop_title     = EXCLUDED.shop_title,
			shop_url       = EXCLUDED.shop_url,
			saved_at       = CASE WHEN $16 THEN EXCLUDED.saved_at ELSE saved_products.saved_at END,
			updated_at     = EXCLUDED.updated_at
		RETURNING saved_at, created_at, updated_at, (xmax = 0) AS inserted`

	ctx, end := database.TraceQuery(ctx, "UpsertSaved", query)
	defer func() { end(err) }()

	currency := p.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	now := time.Now().UTC()

	err = r.db.QueryRow(ctx, query,
		p.ProductID,
		p.Title,
		nullableText(p.CustomTitle),
		nullableText(p.MainImageURL),
		nullableText(p.VideoURL),
		numericArg(p.SalePrice),
		numericArg(p.OriginalPrice),
		currency,
		numericArg(p.Rating),
		p.SalesVolume,
		nullableText(p.PromotionLink),
		nullableText(p.DetailURL),
		nullableText(p.ShopTitle),
		nullableText(p.ShopURL),
		now,
		p.RefreshSavedAt,
	).Scan(&p.SavedAt, &p.CreatedAt, &p.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert saved product: %w", err)
	}
	p.Currency = currency
	return inserted, nil
}

// Delete removes one saved product.
func (r *SavedRepository) Delete(ctx context.Context, productID string) (removed bool, err error) {
	query := `DELETE FROM saved_products WHERE product_id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteSaved", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, productID)
	if err != nil {
		return false, fmt.Errorf("delete saved product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Get returns one saved product.
func (r *SavedRepository) Get(ctx context.Context, productID string) (p *domain.SavedProduct, err error) {
	query := `SELECT ` + savedColumns + ` FROM saved_products WHERE product_id = $1`

	ctx, end := database.TraceQuery(ctx, "GetSaved", query)
	defer func() { end(err) }()

	p, err = scanSaved(r.db.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("saved product", productID)
		}
		return nil, fmt.Errorf("get saved product: %w", err)
	}
	return p, nil
}

// UpdateTitle sets or clears custom_title.
func (r *SavedRepository) UpdateTitle(ctx context.Context, productID, title string) (p *domain.SavedProduct, err error) {
	query := `
		UPDATE saved_products
		SET custom_title = NULLIF($2, ''), updated_at = now()
		WHERE product_id = $1
		RETURNING ` + savedColumns

	ctx, end := database.TraceQuery(ctx, "UpdateSavedTitle", query)
	defer func() { end(err) }()

	p, err = scanSaved(r.db.QueryRow(ctx, query, productID, strings.TrimSpace(title)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("saved product", productID)
		}
		return nil, fmt.Errorf("update saved title: %w", err)
	}
	return p, nil
}

// List returns a filtered, ordered page and the total match count.
func (r *SavedRepository) List(ctx context.Context, filter repository.SavedFilter) (items []domain.SavedProduct, total int, err error) {
	var (
		where string
		args  []any
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = "WHERE (title ILIKE $1 OR custom_title ILIKE $1)"
		args = append(args, "%"+q+"%")
	}

	order, ok := savedOrder[filter.Sort]
	if !ok {
		order = savedOrder[domain.SavedSortSavedAtDesc]
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM saved_products
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		savedColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	ctx, end := database.TraceQuery(ctx, "ListSaved", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list saved products: %w", err)
	}
	defer rows.Close()

	items = []domain.SavedProduct{}
	for rows.Next() {
		p, err := scanSaved(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan saved product: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate saved products: %w", err)
	}

	if len(items) == 0 && page > 1 {
		total, err = r.count(ctx, where, args[:len(args)-2])
		if err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

// Count returns the number of saved products.
func (r *SavedRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "", nil)
}

func (r *SavedRepository) count(ctx context.Context, where string, args []any) (n int, err error) {
	query := `SELECT count(*) FROM saved_products ` + where

	ctx, end := database.TraceQuery(ctx, "CountSaved", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count saved products: %w", err)
	}
	return n, nil
}

func scanSaved(row pgx.Row, extra ...any) (*domain.SavedProduct, error) {
	var (
		p                      domain.SavedProduct
		sale, original, rating *string
	)
	dest := []any{
		&p.ProductID, &p.Title, &p.CustomTitle, &p.MainImageURL,
		&p.VideoURL, &sale, &original, &p.Currency, &rating,
		&p.SalesVolume, &p.PromotionLink, &p.DetailURL, &p.ShopTitle,
		&p.ShopURL, &p.SavedAt, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if p.SalePrice, err = parseNumeric(sale); err != nil {
		return nil, err
	}
	if p.OriginalPrice, err = parseNumeric(original); err != nil {
		return nil, err
	}
	if p.Rating, err = parseNumeric(rating); err != nil {
		return nil, err
	}
	return &p, nil
}
