package forms

import (
	"testing"

	"onboarding/internal/catalog"
	"onboarding/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "1234", DigitsOnly("ab12cd34"))
	assert.Equal(t, "", DigitsOnly("abcdef"))
	assert.Equal(t, "900123456", DigitsOnly("900123456"))
	assert.Equal(t, "", DigitsOnly(""))
}

func TestAtLeastOneFile(t *testing.T) {
	g := BuildDocumentForm(catalog.Resolve("Colombia"))
	assert.False(t, g.Valid(), "empty document form must fail the group validator")

	g.SetValue("rut", &FileValue{Name: "rut.pdf", Size: 1024, Data: []byte("%PDF")})
	assert.True(t, g.Valid())

	g.SetValue("rut", nil)
	assert.False(t, g.Valid(), "removing the only file must re-fail the group validator")
}

func TestAtLeastOneFileZeroControls(t *testing.T) {
	g := BuildDocumentForm(nil)
	assert.Zero(t, g.Len())
	assert.False(t, g.Valid(), "a sub-form with zero controls fails")
}

func TestDocumentFormMatchesSlots(t *testing.T) {
	slots := catalog.Resolve("México")
	g := BuildDocumentForm(slots)

	keys := g.Keys()
	assert.Len(t, keys, len(slots))
	for i, slot := range slots {
		assert.Equal(t, slot.Key, keys[i])
	}
}

func TestRebuildDiscardsPreviousCountry(t *testing.T) {
	a := BuildDocumentForm(catalog.Resolve("Colombia"))
	a.SetValue("rut", &FileValue{Name: "rut.pdf"})

	b := BuildDocumentForm(catalog.Resolve("Alemania"))
	for _, key := range a.Keys() {
		assert.Nil(t, b.Control(key), "no leftover control %q after rebuild", key)
	}
	for _, key := range b.Keys() {
		assert.False(t, IsFileLike(b.Control(key).Value()))
	}
}

func TestIsFileLike(t *testing.T) {
	assert.True(t, IsFileLike(&FileValue{Name: "a.pdf"}))
	assert.True(t, IsFileLike(domain.UploadedDocument{Key: "rut"}))
	assert.False(t, IsFileLike(nil))
	assert.False(t, IsFileLike("a.pdf"))
	assert.False(t, IsFileLike((*FileValue)(nil)))
}

func TestLookupFormValidation(t *testing.T) {
	g := BuildLookupForm()
	assert.False(t, g.Valid())

	g.SetValue("documentNumber", "12345")
	g.SetValue("email", "not-an-email")
	assert.False(t, g.Valid())
	assert.NotEmpty(t, g.Control("documentNumber").Errors())
	assert.NotEmpty(t, g.Control("email").Errors())

	g.SetValue("documentNumber", "1234567")
	g.SetValue("email", "proveedor@ejemplo.com")
	assert.True(t, g.Valid())
}

func TestBusinessFormValidation(t *testing.T) {
	g := BuildBusinessForm()
	assert.False(t, g.Valid())

	g.SetValue("businessName", "ACME SAS")
	g.SetValue("nit", "900123456")
	g.SetValue("legalRepName", "Jane Roe")
	g.SetValue("riskOption", "No")
	assert.True(t, g.Valid(), "riskWhich is optional")
}

func TestMarkAllTouched(t *testing.T) {
	g := BuildDocumentForm(catalog.Resolve("Colombia"))
	for _, key := range g.Keys() {
		assert.False(t, g.Control(key).Touched())
	}

	g.MarkAllTouched()
	for _, key := range g.Keys() {
		assert.True(t, g.Control(key).Touched())
	}
}
