package httpx

import (
	"context"

	"market/internal/market"
)

// Store interfaces the handlers depend on. internal/store implements them
// over pgx; the handler tests use in-memory fakes.

type MemberStore interface {
	Create(ctx context.Context, m market.Member) error
	GetByUsername(ctx context.Context, username string) (market.Member, error)
	GetByID(ctx context.Context, id string) (market.Member, error)
}

type ProductStore interface {
	Create(ctx context.Context, p market.Product) error
	Get(ctx context.Context, id string) (market.Product, error)
	List(ctx context.Context) ([]market.Product, error)
	ListBySeller(ctx context.Context, sellerID string) ([]market.Product, error)
	Update(ctx context.Context, id, sellerID string, upd market.ProductUpdate) (market.Product, error)
	Delete(ctx context.Context, id, sellerID string) error
}

type OrderStore interface {
	Reserve(ctx context.Context, productID, buyerID string, unitPrice, quantity int64) (market.Order, error)
	Approve(ctx context.Context, orderID, sellerID string) (market.Order, market.Product, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]market.OrderSummary, error)
	ListByProduct(ctx context.Context, productID string) ([]market.OrderSummary, error)
}
