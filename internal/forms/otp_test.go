package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOTPInputAdvancesFocus(t *testing.T) {
	e := NewOTPEntry()

	e.Input(0, "1")
	assert.Equal(t, 1, e.Focus())
	e.Input(1, "2")
	assert.Equal(t, 2, e.Focus())

	assert.Equal(t, "12", e.Code())
}

func TestOTPInputStripsNonDigits(t *testing.T) {
	e := NewOTPEntry()

	e.Input(0, "a")
	assert.Equal(t, "", e.Code())
	assert.Equal(t, 0, e.Focus(), "non-digit input must not advance focus")

	e.Input(0, "7x")
	assert.Equal(t, "7", e.Code())
}

func TestOTPBackspace(t *testing.T) {
	e := NewOTPEntry()
	e.Input(0, "1")
	e.Input(1, "2")

	// Backspace on a filled box clears it in place.
	e.Backspace(1)
	assert.Equal(t, "1", e.Code())
	assert.Equal(t, 1, e.Focus())

	// Backspace on an empty box moves to and clears the previous one.
	e.Backspace(1)
	assert.Equal(t, "", e.Code())
	assert.Equal(t, 0, e.Focus())
}

func TestOTPArrowsMoveWithoutMutating(t *testing.T) {
	e := NewOTPEntry()
	e.Input(0, "1")
	e.Input(1, "2")

	e.ArrowLeft()
	e.ArrowLeft()
	assert.Equal(t, 0, e.Focus())
	e.ArrowLeft()
	assert.Equal(t, 0, e.Focus())

	e.ArrowRight()
	assert.Equal(t, 1, e.Focus())
	assert.Equal(t, "12", e.Code())
}

func TestOTPPasteFillsAllBoxes(t *testing.T) {
	e := NewOTPEntry()
	e.Paste("123456")

	assert.Equal(t, "123456", e.Code())
	assert.Equal(t, 5, e.Focus(), "focus lands on the sixth box")
}

func TestOTPPasteIgnoresExtraAndNonDigits(t *testing.T) {
	e := NewOTPEntry()
	e.Paste("12-34-56-78")

	assert.Equal(t, "123456", e.Code())
	assert.Equal(t, 5, e.Focus())
}

func TestOTPValidate(t *testing.T) {
	expected := "123456"
	verify := func(code string) bool { return code == expected }

	e := NewOTPEntry()
	e.Paste("123456")
	assert.True(t, e.Validate(verify))
	assert.False(t, e.LastFailed())

	e = NewOTPEntry()
	e.Paste("654321")
	assert.False(t, e.Validate(verify))
	assert.True(t, e.LastFailed())
	for i := 0; i < OTPLength; i++ {
		assert.True(t, e.Invalid(i), "box %d marked invalid", i)
	}
}

func TestOTPValidateIncomplete(t *testing.T) {
	e := NewOTPEntry()
	e.Paste("123")

	called := false
	ok := e.Validate(func(string) bool { called = true; return true })

	assert.False(t, ok)
	assert.False(t, called, "incomplete codes are rejected before verification")
	assert.True(t, e.LastFailed())
}

func TestOTPInputClearsInvalidFlag(t *testing.T) {
	e := NewOTPEntry()
	e.Paste("654321")
	e.Validate(func(string) bool { return false })
	assert.True(t, e.Invalid(0))

	e.Input(0, "1")
	assert.False(t, e.Invalid(0))
}
