package catalog

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrNameRequired is returned when a draft has an empty display name.
	ErrNameRequired = errors.New("product name is required")

	// ErrNegativePrice is returned for prices below zero.
	ErrNegativePrice = errors.New("price must not be negative")

	// ErrPricePrecision is returned for typed prices finer than a cent.
	ErrPricePrecision = errors.New("price must have at most two decimal places")

	// ErrMissingPrice is returned when a record has no price at all.
	ErrMissingPrice = errors.New("price is missing")
)

// PriceError reports a price value that could not be parsed.
type PriceError struct {
	Raw string
}

func (e *PriceError) Error() string {
	return fmt.Sprintf("invalid price %q", e.Raw)
}
