package market

type ProductStatus string

const (
	ProductForSale  ProductStatus = "FOR_SALE"
	ProductReserved ProductStatus = "RESERVED"
	ProductSoldOut  ProductStatus = "SOLD_OUT"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductForSale, ProductReserved, ProductSoldOut:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderReserved  OrderStatus = "RESERVED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCanceled  OrderStatus = "CANCELED"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderReserved:  {OrderCompleted: true},
	OrderCompleted: {},
	OrderCanceled:  {},
}

// CanTransition reports whether an order may move from one status to another.
// Approval is the only exposed transition; there is no cancellation path.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}
