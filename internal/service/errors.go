// Package service holds the business operations behind the REST handlers.
package service

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotOwner          = errors.New("order belongs to another customer")
	ErrPriceMismatch     = errors.New("submitted prices do not match the cart")
	ErrUnknownProduct    = errors.New("product no longer exists")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidCancelOTP  = errors.New("invalid or expired cancellation OTP")
	ErrInvalidOTP        = errors.New("invalid or expired OTP")
	ErrEmailTaken        = errors.New("an account with this email already exists")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrNotVerified       = errors.New("please verify your email before logging in")
	ErrAlreadyVerified   = errors.New("account is already verified")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrWeakPassword      = errors.New("password is too short")
	ErrCategoryExists    = errors.New("category already exists")
	ErrUnknownCategory   = errors.New("category does not exist")
)

// ValidationError lists request fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}
