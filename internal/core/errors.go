package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName            = errors.New("participant name is empty")
	ErrDuplicateParticipant = errors.New("participant already exists")
	ErrEmptyDescription     = errors.New("empty description")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrUnknownPayer         = errors.New("payer is not a participant")
	ErrParticipantIsPayer   = errors.New("participant is payer of an expense")
)

// ValidationError reports bad or missing user input.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ReferentialIntegrityError is returned when removing a participant that
// expenses still point at.
type ReferentialIntegrityError struct {
	Participant string
	Expenses    int
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s is involved in %d expense(s) and cannot be removed", e.Participant, e.Expenses)
}

func (e *ReferentialIntegrityError) Unwrap() error { return ErrParticipantIsPayer }
