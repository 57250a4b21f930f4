package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means the referenced payment/placement/account does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrValidation covers bad input rejected before any write happens.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidStateTransition means the record already left its pending
	// state. The losing side of a reviewer race sees this with zero writes.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// PartialFailureError reports that the primary status transition committed but
// one or more dependent writes did not. The transition is the source of truth;
// the listed steps are idempotent and safe to re-drive via the reconciler.
type PartialFailureError struct {
	Steps []string
	Err   error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure, pending steps [%s]: %v", strings.Join(e.Steps, ", "), e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
