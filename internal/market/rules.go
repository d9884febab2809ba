package market

// Reservation and approval rules. These are pure: the stores run them
// inside a transaction after locking the rows they read, and the test
// fakes run the very same functions.

// ValidateReservation checks whether buyer may reserve quantity units of p
// at unitPrice. Availability counts pending reservations, so two buyers can
// never reserve more than the stock on hand between them.
func ValidateReservation(p Product, buyerID string, unitPrice, quantity int64) error {
	if err := Authorize(ActionReserveProduct, buyerID, RoleBuyer, p); err != nil {
		return err
	}
	if p.Status != ProductForSale {
		return ErrInvalidState
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if unitPrice != p.Price {
		return ErrPriceMismatch
	}
	if p.Available() < quantity {
		return ErrInsufficientStock
	}
	return nil
}

// ApproveSale finalizes a reservation: it validates seller ownership and
// stock, then mutates p and o in place. Callers persist both rows in the
// same transaction or not at all.
func ApproveSale(p *Product, o *Order, sellerID string) error {
	if err := Authorize(ActionApproveSale, sellerID, RoleSeller, *p); err != nil {
		return err
	}
	if !CanTransition(o.Status, OrderCompleted) {
		return ErrInvalidState
	}
	// A strict product-RESERVED precondition would make approval unreachable,
	// since reservation leaves the listing FOR_SALE. Only SOLD_OUT blocks.
	if p.Status == ProductSoldOut {
		return ErrInvalidState
	}
	if o.Quantity > p.Stock {
		return ErrInsufficientStock
	}

	p.Stock -= o.Quantity
	if p.Reserved >= o.Quantity {
		p.Reserved -= o.Quantity
	} else {
		p.Reserved = 0
	}
	if p.Stock == 0 {
		p.Status = ProductSoldOut
	}
	o.Status = OrderCompleted
	return nil
}
