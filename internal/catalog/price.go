package catalog

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Price is a non-negative decimal amount.
type Price struct {
	decimal.Decimal
}

// NewPrice returns a price from a whole number of cents.
func NewPrice(cents int64) Price {
	return Price{decimal.New(cents, -2)}
}

// MustPrice parses s and panics on error. Intended for tests and constants.
func MustPrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePrice parses a price typed by a user.
//
// A comma is accepted as the decimal separator ("10,50"), and when both
// separators appear the last one wins ("1.234,50" and "1,234.50" are
// both 1234.50).
func ParsePrice(s string) (Price, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Price{}, ErrMissingPrice
	}

	comma := strings.LastIndex(text, ",")
	dot := strings.LastIndex(text, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		text = strings.ReplaceAll(text, ".", "")
		text = strings.Replace(text, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		text = strings.ReplaceAll(text, ",", "")
	case comma >= 0:
		text = strings.Replace(text, ",", ".", 1)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return Price{}, &PriceError{Raw: s}
	}
	if d.IsNegative() {
		return Price{}, ErrNegativePrice
	}
	if !d.Equal(d.Truncate(2)) {
		return Price{}, ErrPricePrecision
	}
	return Price{d}, nil
}

// DecodePrice decodes a price column as returned by the backend.
// Both JSON numbers and numeric strings are accepted; null, an absent
// value, or anything unparseable is an error.
func DecodePrice(raw json.RawMessage) (Price, error) {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Price{}, ErrMissingPrice
	}

	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Price{}, errors.Wrap(err, "decode price string")
		}
		text = strings.TrimSpace(s)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return Price{}, &PriceError{Raw: string(data)}
	}
	if d.IsNegative() {
		return Price{}, ErrNegativePrice
	}
	return Price{d}, nil
}

// MarshalJSON encodes the price as a JSON number.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

// UnmarshalJSON accepts the same representations as DecodePrice.
func (p *Price) UnmarshalJSON(data []byte) error {
	v, err := DecodePrice(data)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Equal reports whether two prices are the same amount.
func (p Price) Equal(other Price) bool {
	return p.Decimal.Equal(other.Decimal)
}

// Format renders the price for display, e.g. "R$ 1.234,50" for pt-BR.
// The amount is rounded half away from zero to two places.
func (p Price) Format(tag language.Tag, symbol string) string {
	whole, frac, _ := strings.Cut(p.StringFixed(2), ".")
	dec, group := separators(tag)
	amount := groupDigits(whole, group) + dec + frac
	if symbol == "" {
		return amount
	}
	return symbol + " " + amount
}

// separators reads the decimal and grouping marks of tag from a rendered
// sample. 1234.5 is exact in binary.
func separators(tag language.Tag) (dec, group string) {
	sample := []rune(message.NewPrinter(tag).Sprintf("%.1f", 1234.5))
	switch len(sample) {
	case 6:
		return string(sample[4]), ""
	case 7:
		return string(sample[5]), string(sample[1])
	}
	return ".", ","
}

func groupDigits(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
