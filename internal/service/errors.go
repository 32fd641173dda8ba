package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to HTTP statuses; specific errors below wrap one of them.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrNotRedeemable    = errors.New("gift code is not redeemable")
	ErrUpstream         = errors.New("upstream failure")
	ErrInProgress       = errors.New("in progress")
	ErrEmailDelivery    = errors.New("email delivery failed")
)

var (
	ErrInvalidLineItem      = fmt.Errorf("%w: unknown platform or subscription", ErrNotFound)
	ErrMissingRecipientInfo = fmt.Errorf("%w: recipient name, email and sender name are required", ErrInvalidInput)
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be a finite positive number", ErrInvalidInput)
	ErrSessionNotFound      = fmt.Errorf("%w: checkout session", ErrNotFound)
	ErrCodeNotFound         = fmt.Errorf("%w: gift code", ErrNotFound)
	ErrEventInProgress      = fmt.Errorf("%w: webhook event is being processed", ErrInProgress)
	// ErrEmailMismatch wraps ErrNotFound so callers cannot tell it apart from a missing code.
	ErrEmailMismatch = fmt.Errorf("%w: gift code", ErrNotFound)
)

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}
