package catalog

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Column names of the catalog table.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldCreatedAt   = "created_at"
)

// Columns is the select list used for every read.
var Columns = []string{FieldID, FieldName, FieldDescription, FieldPrice, FieldCreatedAt}

// Entry is one product record.
type Entry struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       Price     `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

// Draft is the user-editable part of an entry.
// A zero ID means the draft creates a new entry.
type Draft struct {
	ID          int64
	Name        string
	Description string
	Price       Price
}

// IsNew reports whether the draft creates a new entry.
func (d Draft) IsNew() bool {
	return d.ID == 0
}

// Normalized returns a copy with the name NFC-normalised and surrounding
// whitespace trimmed from name and description.
func (d Draft) Normalized() Draft {
	d.Name = NormalizeName(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	return d
}

// Validate checks the draft before it is sent to the backend.
func (d Draft) Validate() error {
	if NormalizeName(d.Name) == "" {
		return ErrNameRequired
	}
	if d.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// DraftFrom returns a draft prefilled from an existing entry.
func DraftFrom(e Entry) Draft {
	return Draft{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Price:       e.Price,
	}
}

// NormalizeName trims a display name and converts it to NFC so that
// visually identical names compare and sort the same way on the server.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
