// Package apperrors defines the sentinel errors shared by services and
// handlers, so business failures survive wrapping and map cleanly onto
// HTTP status codes at the request boundary.
package apperrors

import "errors"

// Business-rule failures, rejected with 400.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductUnavailable = errors.New("product is no longer available")
	ErrInvalidTransition  = errors.New("order cannot be cancelled at this stage")
	ErrDuplicateReview    = errors.New("product already reviewed by this user")
	ErrInvalidQuantity    = errors.New("quantity out of range")
	ErrInvalidStatus      = errors.New("invalid order status")
)

// Authorization failures.
var (
	ErrForbidden          = errors.New("access denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned on uniqueness violations (taken username,
// registered email, order-number collision).
var ErrDuplicate = errors.New("record already exists")

// IsBusiness reports whether err is a business-rule failure that should
// surface as a 400 with its own message.
func IsBusiness(err error) bool {
	for _, sentinel := range []error{
		ErrEmptyCart,
		ErrInsufficientStock,
		ErrProductUnavailable,
		ErrInvalidTransition,
		ErrDuplicateReview,
		ErrInvalidQuantity,
		ErrInvalidStatus,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
