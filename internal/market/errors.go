package market

import "errors"

var (
	ErrMemberNotFound  = errors.New("member not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")

	ErrUnauthorized      = errors.New("not allowed")
	ErrInvalidState      = errors.New("invalid state for this operation")
	ErrPriceMismatch     = errors.New("proposed price does not match listing price")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrUsernameTaken     = errors.New("username already taken")
)
