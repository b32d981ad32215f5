// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrSessionNotFound = errors.New("wizard session not found")
	ErrSessionExpired  = errors.New("wizard session expired")
	ErrInvalidStep     = errors.New("invalid wizard step")
	ErrStepNotAllowed  = errors.New("step transition not allowed")
	ErrFormInvalid     = errors.New("form validation failed")

	// Employee lookup errors
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrInvalidDocumentNumber = errors.New("invalid document number")

	// Invitation/order errors
	ErrInvitationFailed = errors.New("invitation creation failed")
	ErrOrderRejected    = errors.New("service order validation rejected")
	ErrInvalidLink      = errors.New("invalid invitation link")
	ErrLinkExpired      = errors.New("invitation link expired")

	// Document upload errors
	ErrUnknownSlot        = errors.New("unknown document slot")
	ErrNoDocumentAttached = errors.New("no document attached")
	ErrFileTooLarge       = errors.New("file too large")
	ErrFileTooSmall       = errors.New("file too small")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")

	// Extraction errors
	ErrSubmissionFailed = errors.New("document submission failed")
	ErrPollBudgetSpent  = errors.New("extraction poll budget exhausted")

	// Request handling errors
	ErrDuplicateRequest = errors.New("duplicate request")

	// OTP errors
	ErrTokenMismatch   = errors.New("verification code mismatch")
	ErrTokenNotIssued  = errors.New("verification code not issued")
	ErrTokenExpired    = errors.New("verification code expired")
	ErrTokenSendFailed = errors.New("verification code delivery failed")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
