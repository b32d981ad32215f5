// ==============================================================================
// FORM/VALIDATION LAYER - internal/forms/forms.go
// ==============================================================================
// Headless control/group model mirroring the wizard's reactive sub-forms:
// per-control validators, touched tracking, and group-level validation that
// re-runs on every write and on every rebuild of the control set.
// ==============================================================================

package forms

import (
	"regexp"
	"strings"

	"onboarding/internal/domain"
)

// ValidatorFunc validates a single control value. It returns an error
// message, or "" when the value is acceptable.
type ValidatorFunc func(value interface{}) string

// GroupValidatorFunc validates a whole group.
type GroupValidatorFunc func(g *Group) string

// FileValue is the file-like value a document control holds.
type FileValue struct {
	Name string
	Size int64
	Data []byte
}

// Control is one form field.
type Control struct {
	value      interface{}
	validators []ValidatorFunc
	touched    bool
	errs       []string
}

// NewControl builds a control with an initial empty value.
func NewControl(validators ...ValidatorFunc) *Control {
	c := &Control{validators: validators}
	c.revalidate()
	return c
}

func (c *Control) revalidate() {
	c.errs = nil
	for _, v := range c.validators {
		if msg := v(c.value); msg != "" {
			c.errs = append(c.errs, msg)
		}
	}
}

// SetValue writes a value and re-runs the control's validators.
func (c *Control) SetValue(v interface{}) {
	c.value = v
	c.revalidate()
}

// Value returns the current value.
func (c *Control) Value() interface{} { return c.value }

// String returns the current value as a string, or "" for non-strings.
func (c *Control) String() string {
	s, _ := c.value.(string)
	return s
}

// MarkTouched flags the control so validation errors become visible.
func (c *Control) MarkTouched() { c.touched = true }

// Touched reports whether the control has been touched.
func (c *Control) Touched() bool { return c.touched }

// Valid reports whether the control passes all its validators.
func (c *Control) Valid() bool { return len(c.errs) == 0 }

// Errors returns the current validation messages.
func (c *Control) Errors() []string { return c.errs }

// SetErrors overrides validation state, used to flag remote rejections.
func (c *Control) SetErrors(msgs ...string) { c.errs = msgs }

// Group is an ordered set of named controls with optional group validators.
type Group struct {
	order           []string
	controls        map[string]*Control
	groupValidators []GroupValidatorFunc
	groupErr        string
}

// NewGroup builds an empty group.
func NewGroup(validators ...GroupValidatorFunc) *Group {
	g := &Group{
		controls:        make(map[string]*Control),
		groupValidators: validators,
	}
	g.revalidate()
	return g
}

// Add registers a control under a key. Re-adding a key replaces the control.
func (g *Group) Add(key string, c *Control) {
	if _, exists := g.controls[key]; !exists {
		g.order = append(g.order, key)
	}
	g.controls[key] = c
	g.revalidate()
}

// Control returns the control for a key, or nil.
func (g *Group) Control(key string) *Control { return g.controls[key] }

// Keys returns the control keys in insertion order.
func (g *Group) Keys() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of controls.
func (g *Group) Len() int { return len(g.order) }

// SetValue writes a control value and re-runs group validation.
func (g *Group) SetValue(key string, v interface{}) bool {
	c := g.controls[key]
	if c == nil {
		return false
	}
	c.SetValue(v)
	c.MarkTouched()
	g.revalidate()
	return true
}

func (g *Group) revalidate() {
	g.groupErr = ""
	for _, v := range g.groupValidators {
		if msg := v(g); msg != "" {
			g.groupErr = msg
			return
		}
	}
}

// Revalidate re-runs every control's validators and the group validators.
func (g *Group) Revalidate() {
	for _, c := range g.controls {
		c.revalidate()
	}
	g.revalidate()
}

// Valid reports whether all controls and the group validators pass.
func (g *Group) Valid() bool {
	if g.groupErr != "" {
		return false
	}
	for _, c := range g.controls {
		if !c.Valid() {
			return false
		}
	}
	return true
}

// GroupError returns the current group-level validation message.
func (g *Group) GroupError() string { return g.groupErr }

// MarkAllTouched touches every control so errors surface in the UI.
func (g *Group) MarkAllTouched() {
	for _, c := range g.controls {
		c.MarkTouched()
	}
}

// Values snapshots the current control values.
func (g *Group) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(g.controls))
	for k, c := range g.controls {
		out[k] = c.Value()
	}
	return out
}

// ==============================================================================
// VALIDATORS
// ==============================================================================

var (
	emailRe  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitsRe = regexp.MustCompile(`[^0-9]`)
)

// Required fails on nil, empty strings, and empty file values.
func Required(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "required"
	case string:
		if strings.TrimSpace(val) == "" {
			return "required"
		}
	case *FileValue:
		if val == nil {
			return "required"
		}
	}
	return ""
}

// Pattern builds a validator that matches non-empty strings against re.
func Pattern(re *regexp.Regexp, msg string) ValidatorFunc {
	return func(v interface{}) string {
		s, _ := v.(string)
		if s == "" {
			return ""
		}
		if !re.MatchString(s) {
			return msg
		}
		return ""
	}
}

// Email validates non-empty strings as email addresses.
func Email(v interface{}) string {
	s, _ := v.(string)
	if s == "" {
		return ""
	}
	if !emailRe.MatchString(s) {
		return "invalid email"
	}
	return ""
}

// LengthBetween validates a string length range, ignoring empty values.
func LengthBetween(min, max int) ValidatorFunc {
	return func(v interface{}) string {
		s, _ := v.(string)
		if s == "" {
			return ""
		}
		if len(s) < min || len(s) > max {
			return "invalid length"
		}
		return ""
	}
}

// AtLeastOneFile passes iff at least one control in the group holds a
// file-like value. A group with zero controls fails.
func AtLeastOneFile(g *Group) string {
	for _, key := range g.Keys() {
		if IsFileLike(g.Control(key).Value()) {
			return ""
		}
	}
	return "at least one document is required"
}

// IsFileLike reports whether a control value carries an uploaded file.
func IsFileLike(v interface{}) bool {
	switch val := v.(type) {
	case *FileValue:
		return val != nil
	case FileValue:
		return true
	case *domain.UploadedDocument:
		return val != nil
	case domain.UploadedDocument:
		return true
	}
	return false
}

// DigitsOnly strips every non-digit character, the live input filter the
// document-number field applies as the user types.
func DigitsOnly(s string) string {
	return digitsRe.ReplaceAllString(s, "")
}

// ==============================================================================
// FORM BUILDERS
// ==============================================================================

// BuildDocumentForm builds a fresh document sub-form from a slot list. The
// previous sub-form is always discarded wholesale, never patched.
func BuildDocumentForm(slots []domain.DocumentSlot) *Group {
	g := NewGroup(AtLeastOneFile)
	for _, slot := range slots {
		g.Add(slot.Key, NewControl())
	}
	return g
}

// BuildBusinessForm builds the business-data sub-form.
func BuildBusinessForm() *Group {
	g := NewGroup()
	g.Add("businessName", NewControl(Required))
	g.Add("nit", NewControl(Required))
	g.Add("legalRepName", NewControl(Required))
	g.Add("riskOption", NewControl(Required))
	g.Add("riskWhich", NewControl())
	return g
}

// BuildLookupForm builds the employee intake sub-form.
func BuildLookupForm() *Group {
	g := NewGroup()
	g.Add("documentNumber", NewControl(
		Required,
		Pattern(regexp.MustCompile(`^[0-9]+$`), "digits only"),
		LengthBetween(6, 10),
	))
	g.Add("email", NewControl(Required, Email))
	return g
}
