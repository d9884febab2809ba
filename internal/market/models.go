package market

import "time"

type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
)

func (r Role) Valid() bool { return r == RoleBuyer || r == RoleSeller }

type Member struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Product struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Price     int64         `json:"price"`
	Stock     int64         `json:"stock"`
	Reserved  int64         `json:"reserved"`
	Status    ProductStatus `json:"status"`
	SellerID  string        `json:"seller_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Available is the stock not yet claimed by pending reservations.
func (p Product) Available() int64 { return p.Stock - p.Reserved }

// ProductUpdate carries the optional fields of a PATCH; nil means unchanged.
type ProductUpdate struct {
	Name   *string        `json:"name"`
	Price  *int64         `json:"price"`
	Stock  *int64         `json:"stock"`
	Status *ProductStatus `json:"status"`
}

type Order struct {
	ID         string      `json:"id"`
	ProductID  string      `json:"product_id"`
	BuyerID    string      `json:"buyer_id"`
	Status     OrderStatus `json:"status"`
	Quantity   int64       `json:"quantity"`
	TotalPrice int64       `json:"total_price"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderSummary is the read projection for buyer/seller order listings.
type OrderSummary struct {
	ID          string      `json:"id"`
	ProductName string      `json:"product_name"`
	TotalPrice  int64       `json:"total_price"`
	Status      OrderStatus `json:"status"`
	Quantity    int64       `json:"quantity"`
}
