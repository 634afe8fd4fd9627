package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andresvco/storefront-core/internal/catalog/application"
	"github.com/andresvco/storefront-core/internal/catalog/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const productSnapshotQuery = `
SELECT p.id, p.uuid, p.name, p.price, p.stock, p.active,
       (SELECT count(*) FROM product_likes pl WHERE pl.product_id = p.id) AS likes,
       COALESCE(
           (SELECT array_agg(c.name ORDER BY c.name)
              FROM product_categories pc
              JOIN categories c ON c.id = pc.category_id
             WHERE pc.product_id = p.id),
           '{}'
       ) AS categories,
       p.created_at, p.updated_at
  FROM products p`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.UUID, &p.Name, &p.Price, &p.Stock, &p.Active,
		&p.Likes, &p.Categories, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) CreateProduct(ctx context.Context, np application.NewProduct) (domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Product{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	catIDs, err := resolveCategories(ctx, tx, np.Categories)
	if err != nil {
		return domain.Product{}, err
	}

	var productID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO products (name, price, stock, active) VALUES ($1, $2, $3, $4) RETURNING id`,
		np.Name, np.Price, np.Stock, np.Active).Scan(&productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}

	if err := linkCategories(ctx, tx, productID, catIDs); err != nil {
		return domain.Product{}, err
	}

	product, err := scanProduct(tx.QueryRow(ctx, productSnapshotQuery+` WHERE p.id = $1`, productID))
	if err != nil {
		return domain.Product{}, fmt.Errorf("read back product: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Product{}, err
	}
	r.log.InfoContext(ctx, "product created", "product_uuid", product.UUID, "name", product.Name)
	return product, nil
}

func (r *Repository) GetProduct(ctx context.Context, uuid string) (domain.Product, error) {
	product, err := scanProduct(r.pool.QueryRow(ctx,
		productSnapshotQuery+` WHERE p.uuid = $1 AND p.active`, uuid))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, application.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (r *Repository) ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		productSnapshotQuery+` WHERE p.active ORDER BY p.created_at DESC, p.id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *Repository) ListByCategory(ctx context.Context, categoryUUID string) ([]domain.Product, error) {
	var categoryID int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM categories WHERE uuid = $1`, categoryUUID).Scan(&categoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, application.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, productSnapshotQuery+`
  JOIN product_categories pc2 ON pc2.product_id = p.id
 WHERE pc2.category_id = $1 AND p.active
 ORDER BY p.created_at DESC, p.id DESC`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *Repository) UpdateProduct(ctx context.Context, uuid string, u application.ProductUpdate) (domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Product{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var productID int64
	err = tx.QueryRow(ctx,
		`UPDATE products SET name = $2, price = $3, stock = $4, active = $5, updated_at = now()
		  WHERE uuid = $1 RETURNING id`,
		uuid, u.Name, u.Price, u.Stock, u.Active).Scan(&productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, application.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}

	if u.Categories != nil {
		catIDs, err := resolveCategories(ctx, tx, u.Categories)
		if err != nil {
			return domain.Product{}, err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, productID); err != nil {
			return domain.Product{}, fmt.Errorf("clear categories: %w", err)
		}
		if err := linkCategories(ctx, tx, productID, catIDs); err != nil {
			return domain.Product{}, err
		}
	}

	product, err := scanProduct(tx.QueryRow(ctx, productSnapshotQuery+` WHERE p.id = $1`, productID))
	if err != nil {
		return domain.Product{}, fmt.Errorf("read back product: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// DeleteProduct removes the product row. Order lines reference products with
// ON DELETE RESTRICT, so a product that was ever sold cannot be deleted; the
// caller should deactivate it instead.
func (r *Repository) DeleteProduct(ctx context.Context, uuid string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE uuid = $1`, uuid)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return application.ErrProductInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrProductNotFound
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, uuid, name, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.UUID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, uuid, name, created_at, updated_at`,
		name).Scan(&c.ID, &c.UUID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.Category{}, application.ErrInvalidName
	}
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, uuid, name string) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx,
		`UPDATE categories SET name = $2, updated_at = now() WHERE uuid = $1
		 RETURNING id, uuid, name, created_at, updated_at`,
		uuid, name).Scan(&c.ID, &c.UUID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, application.ErrCategoryNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.Category{}, application.ErrInvalidName
	}
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, uuid string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE uuid = $1`, uuid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrCategoryNotFound
	}
	return nil
}

func (r *Repository) Like(ctx context.Context, productUUID, userUUID string) error {
	tag, err := r.pool.Exec(ctx, `
INSERT INTO product_likes (product_id, user_id)
SELECT p.id, u.id FROM products p, users u WHERE p.uuid = $1 AND u.uuid = $2`,
		productUUID, userUUID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return application.ErrAlreadyLiked
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrProductNotFound
	}
	return nil
}

func (r *Repository) Unlike(ctx context.Context, productUUID, userUUID string) error {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM product_likes pl
 USING products p, users u
 WHERE pl.product_id = p.id AND pl.user_id = u.id AND p.uuid = $1 AND u.uuid = $2`,
		productUUID, userUUID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrLikeNotFound
	}
	return nil
}

func (r *Repository) AttachImage(ctx context.Context, productUUID, objectKey, contentType string) (domain.Image, error) {
	var img domain.Image
	err := r.pool.QueryRow(ctx, `
INSERT INTO product_images (product_id, object_key, content_type)
SELECT p.id, $2, $3 FROM products p WHERE p.uuid = $1
RETURNING id, object_key, content_type, created_at`,
		productUUID, objectKey, contentType).
		Scan(&img.ID, &img.ObjectKey, &img.ContentType, &img.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Image{}, application.ErrProductNotFound
	}
	if err != nil {
		return domain.Image{}, err
	}
	img.ProductUUID = productUUID
	return img, nil
}

func (r *Repository) ListImages(ctx context.Context, productUUID string) ([]domain.Image, error) {
	rows, err := r.pool.Query(ctx, `
SELECT i.id, i.object_key, i.content_type, i.created_at
  FROM product_images i
  JOIN products p ON p.id = i.product_id
 WHERE p.uuid = $1
 ORDER BY i.id`, productUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Image
	for rows.Next() {
		img := domain.Image{ProductUUID: productUUID}
		if err := rows.Scan(&img.ID, &img.ObjectKey, &img.ContentType, &img.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// resolveCategories maps category names to ids and fails if any name is
// unknown, so a product can never point at a category that does not exist.
// Repeated names count once.
func resolveCategories(ctx context.Context, q querier, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	unique := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}

	rows, err := q.Query(ctx, `SELECT id FROM categories WHERE name = ANY($1)`, unique)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) != len(unique) {
		return nil, application.ErrCategoryNotFound
	}
	return ids, nil
}

func linkCategories(ctx context.Context, tx pgx.Tx, productID int64, catIDs []int64) error {
	if len(catIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, catID := range catIDs {
		batch.Queue(`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)`,
			productID, catID)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range catIDs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("link category: %w", err)
		}
	}
	return nil
}
