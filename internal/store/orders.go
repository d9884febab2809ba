package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"market/internal/market"
)

type OrderRepo struct{ DB *pgxpool.Pool }

// Reserve creates a RESERVED order for the buyer. The product row is locked
// for the duration of the check, and the reserved counter is bumped in the
// same transaction, so concurrent reservations cannot claim more than the
// available stock between them.
func (r *OrderRepo) Reserve(ctx context.Context, productID, buyerID string, unitPrice, quantity int64) (market.Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return market.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProduct(tx.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1 FOR UPDATE`, productID))
	if err != nil {
		return market.Order{}, err
	}
	if err := market.ValidateReservation(p, buyerID, unitPrice, quantity); err != nil {
		return market.Order{}, err
	}

	now := time.Now().UTC()
	o := market.Order{
		ID:         uuid.NewString(),
		ProductID:  productID,
		BuyerID:    buyerID,
		Status:     market.OrderReserved,
		Quantity:   quantity,
		TotalPrice: unitPrice * quantity,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, product_id, buyer_id, status, quantity, total_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.ProductID, o.BuyerID, o.Status, o.Quantity, o.TotalPrice, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return market.Order{}, err
	}
	_, err = tx.Exec(ctx,
		`UPDATE products SET reserved = reserved + $2, updated_at=$3 WHERE id=$1`,
		productID, quantity, now,
	)
	if err != nil {
		return market.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return market.Order{}, err
	}
	return o, nil
}

// Approve finalizes a reservation: stock decrement, SOLD_OUT flip at zero and
// the order's COMPLETED transition commit together or not at all.
func (r *OrderRepo) Approve(ctx context.Context, orderID, sellerID string) (market.Order, market.Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return market.Order{}, market.Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var o market.Order
	err = tx.QueryRow(ctx, `
		SELECT id, product_id, buyer_id, status, quantity, total_price, created_at, updated_at
		FROM orders WHERE id=$1 FOR UPDATE`, orderID).
		Scan(&o.ID, &o.ProductID, &o.BuyerID, &o.Status, &o.Quantity, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.Order{}, market.Product{}, market.ErrOrderNotFound
	}
	if err != nil {
		return market.Order{}, market.Product{}, err
	}

	p, err := scanProduct(tx.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1 FOR UPDATE`, o.ProductID))
	if err != nil {
		return market.Order{}, market.Product{}, err
	}

	if err := market.ApproveSale(&p, &o, sellerID); err != nil {
		return market.Order{}, market.Product{}, err
	}

	now := time.Now().UTC()
	p.UpdatedAt = now
	o.UpdatedAt = now
	_, err = tx.Exec(ctx, `
		UPDATE products SET stock=$2, reserved=$3, status=$4, updated_at=$5 WHERE id=$1`,
		p.ID, p.Stock, p.Reserved, p.Status, p.UpdatedAt,
	)
	if err != nil {
		return market.Order{}, market.Product{}, err
	}
	_, err = tx.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`,
		o.ID, o.Status, o.UpdatedAt,
	)
	if err != nil {
		return market.Order{}, market.Product{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return market.Order{}, market.Product{}, err
	}
	return o, p, nil
}

func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]market.OrderSummary, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, p.name, o.total_price, o.status, o.quantity
		FROM orders o JOIN products p ON p.id = o.product_id
		WHERE o.buyer_id=$1
		ORDER BY o.created_at DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSummaries(rows)
}

func (r *OrderRepo) ListByProduct(ctx context.Context, productID string) ([]market.OrderSummary, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, p.name, o.total_price, o.status, o.quantity
		FROM orders o JOIN products p ON p.id = o.product_id
		WHERE o.product_id=$1
		ORDER BY o.created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSummaries(rows)
}

func collectSummaries(rows pgx.Rows) ([]market.OrderSummary, error) {
	var out []market.OrderSummary
	for rows.Next() {
		var s market.OrderSummary
		if err := rows.Scan(&s.ID, &s.ProductName, &s.TotalPrice, &s.Status, &s.Quantity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
