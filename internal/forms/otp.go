// ==============================================================================
// OTP ENTRY - internal/forms/otp.go
// ==============================================================================
// Six independent single-digit boxes with focus management: digit input
// advances, Backspace on an empty box clears and refocuses the previous one,
// arrows move without mutating, paste distributes digits from the first box.
// ==============================================================================

package forms

import "strings"

// OTPLength is the number of digit boxes.
const OTPLength = 6

// OTPEntry is the headless state of the code-entry widget.
type OTPEntry struct {
	digits     [OTPLength]string
	invalid    [OTPLength]bool
	focus      int
	lastFailed bool
}

// NewOTPEntry returns an empty entry focused on the first box.
func NewOTPEntry() *OTPEntry {
	return &OTPEntry{}
}

// Input handles typing into box idx: non-digits are stripped, at most one
// character is kept, and a valid digit advances focus.
func (e *OTPEntry) Input(idx int, text string) {
	if idx < 0 || idx >= OTPLength {
		return
	}
	d := DigitsOnly(text)
	if len(d) > 1 {
		d = d[:1]
	}
	e.digits[idx] = d
	e.invalid[idx] = false

	if d != "" && idx < OTPLength-1 {
		e.focus = idx + 1
	} else {
		e.focus = idx
	}
}

// Backspace clears box idx; on an already-empty box it moves focus to and
// clears the previous box.
func (e *OTPEntry) Backspace(idx int) {
	if idx < 0 || idx >= OTPLength {
		return
	}
	if e.digits[idx] == "" && idx > 0 {
		e.focus = idx - 1
		e.digits[idx-1] = ""
		return
	}
	e.digits[idx] = ""
	e.focus = idx
}

// ArrowLeft moves focus left without mutating values.
func (e *OTPEntry) ArrowLeft() {
	if e.focus > 0 {
		e.focus--
	}
}

// ArrowRight moves focus right without mutating values.
func (e *OTPEntry) ArrowRight() {
	if e.focus < OTPLength-1 {
		e.focus++
	}
}

// Paste distributes up to six digits across the boxes starting at the first
// box and lands focus on the last filled box.
func (e *OTPEntry) Paste(text string) {
	d := DigitsOnly(text)
	if len(d) > OTPLength {
		d = d[:OTPLength]
	}
	for i, r := range d {
		e.digits[i] = string(r)
		e.invalid[i] = false
	}
	if len(d) > 0 {
		e.focus = len(d) - 1
	}
}

// Code returns the concatenated digits.
func (e *OTPEntry) Code() string {
	return strings.Join(e.digits[:], "")
}

// Focus returns the index of the focused box.
func (e *OTPEntry) Focus() int { return e.focus }

// Invalid reports whether box idx is flagged invalid.
func (e *OTPEntry) Invalid(idx int) bool {
	if idx < 0 || idx >= OTPLength {
		return false
	}
	return e.invalid[idx]
}

// LastFailed reports whether the most recent validation failed. It replaces
// the shake animation of the visual widget.
func (e *OTPEntry) LastFailed() bool { return e.lastFailed }

// Validate checks the concatenated code with verify. Incomplete or rejected
// codes mark every box invalid.
func (e *OTPEntry) Validate(verify func(code string) bool) bool {
	code := e.Code()
	if len(code) < OTPLength || !verify(code) {
		e.markAllInvalid()
		return false
	}
	e.lastFailed = false
	return true
}

func (e *OTPEntry) markAllInvalid() {
	for i := range e.invalid {
		e.invalid[i] = true
	}
	e.lastFailed = true
}
