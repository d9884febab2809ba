package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"market/internal/market"
)

type ProductRepo struct{ DB *pgxpool.Pool }

const productCols = `id, name, price, stock, reserved, status, seller_id, created_at, updated_at`

func scanProduct(row pgx.Row) (market.Product, error) {
	var p market.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Reserved,
		&p.Status, &p.SellerID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.Product{}, market.ErrProductNotFound
	}
	return p, err
}

func (r *ProductRepo) Create(ctx context.Context, p market.Product) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, name, price, stock, reserved, status, seller_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.Price, p.Stock, p.Reserved, p.Status, p.SellerID, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (market.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

func (r *ProductRepo) List(ctx context.Context) ([]market.Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productCols+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *ProductRepo) ListBySeller(ctx context.Context, sellerID string) ([]market.Product, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+productCols+` FROM products WHERE seller_id=$1 ORDER BY created_at DESC`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]market.Product, error) {
	var out []market.Product
	for rows.Next() {
		var p market.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Reserved,
			&p.Status, &p.SellerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies a partial PATCH under a row lock so a concurrent approval
// cannot interleave with a stock edit.
func (r *ProductRepo) Update(ctx context.Context, id, sellerID string, upd market.ProductUpdate) (market.Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return market.Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProduct(tx.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return market.Product{}, err
	}
	if err := market.Authorize(market.ActionUpdateProduct, sellerID, market.RoleSeller, p); err != nil {
		return market.Product{}, err
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Stock != nil {
		p.Stock = *upd.Stock
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return market.Product{}, market.ErrInvalidState
		}
		p.Status = *upd.Status
	}
	p.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, `
		UPDATE products SET name=$2, price=$3, stock=$4, status=$5, updated_at=$6
		WHERE id=$1`,
		p.ID, p.Name, p.Price, p.Stock, p.Status, p.UpdatedAt,
	)
	if err != nil {
		return market.Product{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return market.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id, sellerID string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProduct(tx.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return err
	}
	if err := market.Authorize(market.ActionDeleteProduct, sellerID, market.RoleSeller, p); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
