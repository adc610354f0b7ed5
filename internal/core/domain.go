package core

import (
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"
)

type (
	// Expense is a single payment made by one participant on behalf of the
	// whole group. Expenses are never edited once recorded.
	Expense struct {
		ID          string  `json:"id"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Payer       string  `json:"payer"`
	}

	// Ledger holds the group and its expenses. It is not safe for concurrent
	// use; callers serialize access.
	Ledger struct {
		participants []string
		expenses     []Expense
		newID        func() string
	}

	// Option configures a Ledger.
	Option func(*Ledger)
)

// WithIDGenerator overrides how expense ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// NewLedger returns an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{newID: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddParticipant appends name to the group.
func (l *Ledger) AddParticipant(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if l.HasParticipant(name) {
		return &ValidationError{Field: "name", Value: name, Err: ErrDuplicateParticipant}
	}
	l.participants = append(l.participants, name)
	return nil
}

// RemoveParticipant drops name from the group unless some expense names it
// as payer. Unknown names are ignored.
func (l *Ledger) RemoveParticipant(name string) error {
	if n := l.paidBy(name); n > 0 {
		return &ReferentialIntegrityError{Participant: name, Expenses: n}
	}
	l.participants = slices.DeleteFunc(l.participants, func(p string) bool { return p == name })
	return nil
}

// AddExpense records a payment and returns it with its assigned id.
func (l *Ledger) AddExpense(description string, amount float64, payer string) (Expense, error) {
	if strings.TrimSpace(description) == "" {
		return Expense{}, &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return Expense{}, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if !l.HasParticipant(payer) {
		return Expense{}, &ValidationError{Field: "payer", Value: payer, Err: ErrUnknownPayer}
	}
	e := Expense{
		ID:          l.newID(),
		Description: description,
		Amount:      amount,
		Payer:       payer,
	}
	l.expenses = append(l.expenses, e)
	return e, nil
}

// ClearExpenses removes every expense. Participants are kept.
func (l *Ledger) ClearExpenses() {
	l.expenses = nil
}

// HasParticipant reports whether name is in the group (exact match).
func (l *Ledger) HasParticipant(name string) bool {
	return slices.Contains(l.participants, name)
}

// Participants returns the group in insertion order.
func (l *Ledger) Participants() []string {
	return slices.Clone(l.participants)
}

// Expenses returns the recorded expenses in insertion order.
func (l *Ledger) Expenses() []Expense {
	return slices.Clone(l.expenses)
}

func (l *Ledger) paidBy(name string) int {
	n := 0
	for _, e := range l.expenses {
		if e.Payer == name {
			n++
		}
	}
	return n
}
