package market

type Action int

const (
	ActionCreateProduct Action = iota
	ActionUpdateProduct
	ActionDeleteProduct
	ActionReserveProduct
	ActionApproveSale
)

// Authorize is the single authorization gate for every mutating operation.
// For ActionCreateProduct the product argument is ignored.
func Authorize(action Action, memberID string, role Role, p Product) error {
	switch action {
	case ActionCreateProduct:
		if role != RoleSeller {
			return ErrUnauthorized
		}
	case ActionUpdateProduct, ActionDeleteProduct, ActionApproveSale:
		if p.SellerID != memberID {
			return ErrUnauthorized
		}
	case ActionReserveProduct:
		// sellers cannot buy their own listing
		if p.SellerID == memberID {
			return ErrUnauthorized
		}
	}
	return nil
}
