package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDraft_Validate(t *testing.T) {
	assert.NoError(t, Draft{Name: "Coffee", Price: MustPrice("3")}.Validate())
	assert.ErrorIs(t, Draft{Name: "   ", Price: MustPrice("3")}.Validate(), ErrNameRequired)

	negative := Draft{Name: "Coffee"}
	negative.Price.Decimal = MustPrice("3").Neg()
	assert.ErrorIs(t, negative.Validate(), ErrNegativePrice)
}

func TestDraft_IsNew(t *testing.T) {
	assert.True(t, Draft{}.IsNew())
	assert.False(t, Draft{ID: 7}.IsNew())
}

func TestNormalizeName_NFC(t *testing.T) {
	decomposed := "Cafe\u0301"
	composed := "Caf\u00e9"
	assert.Equal(t, composed, NormalizeName("  "+decomposed+" "))
}

func TestDraftFrom_CopiesEditableFields(t *testing.T) {
	e := Entry{ID: 3, Name: "Tea", Description: "green", Price: MustPrice("4.2")}
	d := DraftFrom(e)
	assert.Equal(t, int64(3), d.ID)
	assert.Equal(t, "Tea", d.Name)
	assert.Equal(t, "green", d.Description)
	assert.True(t, d.Price.Equal(e.Price))
}

func TestDraft_Normalized(t *testing.T) {
	d := Draft{Name: " Café ", Description: "  strong  "}.Normalized()
	assert.Equal(t, "Café", d.Name)
	assert.Equal(t, "strong", d.Description)
}
