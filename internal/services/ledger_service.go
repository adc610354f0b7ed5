package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"splitter/internal/core"
	"splitter/internal/gateway"
	"splitter/internal/log"
	"splitter/internal/metrics"
)

// Options configures a LedgerService.
type Options struct {
	Currency          string
	NotificationTitle string
	// Concurrency bounds in-flight gateway calls during NotifyBalances.
	Concurrency int
	// Seed participants are added at construction, in order.
	Seed    []string
	Logger  *log.Logger
	Metrics *metrics.Metrics
	// LedgerOptions are passed to core.NewLedger.
	LedgerOptions []core.Option
}

// BalanceLine is one participant's balance with its display message.
type BalanceLine struct {
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
	Message string  `json:"message"`
}

// Snapshot is a consistent view of the ledger taken under one lock.
type Snapshot struct {
	Participants []string       `json:"participants"`
	Expenses     []core.Expense `json:"expenses"`
	Balances     []BalanceLine  `json:"balances"`
	Currency     string         `json:"currency"`
}

// NotificationResult is the outcome of one participant's delivery.
type NotificationResult struct {
	Participant string
	Message     string
	Err         error
}

// NotificationReport lists delivery outcomes in participant order.
type NotificationReport struct {
	Results   []NotificationResult
	Delivered int
	Failed    int
}

// LedgerService serializes all access to a single in-memory ledger and
// fans balance reminders out to a notifier gateway.
type LedgerService struct {
	mu     sync.Mutex
	ledger *core.Ledger

	gateway     gateway.Gateway
	currency    string
	title       string
	concurrency int
	logger      *log.Logger
	metrics     *metrics.Metrics
}

func NewLedgerService(gw gateway.Gateway, opts Options) (*LedgerService, error) {
	if gw == nil {
		return nil, errors.New("ledger service: nil gateway")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	s := &LedgerService{
		ledger:      core.NewLedger(opts.LedgerOptions...),
		gateway:     gw,
		currency:    opts.Currency,
		title:       opts.NotificationTitle,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentLedger),
		metrics:     opts.Metrics,
	}
	for _, name := range opts.Seed {
		if err := s.ledger.AddParticipant(name); err != nil {
			return nil, fmt.Errorf("seed participant: %w", err)
		}
	}
	return s, nil
}

// Currency returns the symbol used in balance messages.
func (s *LedgerService) Currency() string { return s.currency }

func (s *LedgerService) AddParticipant(ctx context.Context, name string) error {
	s.mu.Lock()
	err := s.ledger.AddParticipant(name)
	s.mu.Unlock()

	s.record(ctx, log.OpAddParticipant, err, log.FieldParticipant, name)
	return err
}

func (s *LedgerService) RemoveParticipant(ctx context.Context, name string) error {
	s.mu.Lock()
	err := s.ledger.RemoveParticipant(name)
	s.mu.Unlock()

	s.record(ctx, log.OpRemoveParticipant, err, log.FieldParticipant, name)
	return err
}

func (s *LedgerService) AddExpense(ctx context.Context, description string, amount float64, payer string) (core.Expense, error) {
	s.mu.Lock()
	e, err := s.ledger.AddExpense(description, amount, payer)
	s.mu.Unlock()

	s.record(ctx, log.OpAddExpense, err, log.NewFields().WithExpense(e.ID, description, amount, payer)...)
	return e, err
}

func (s *LedgerService) ClearExpenses(ctx context.Context) {
	s.mu.Lock()
	n := len(s.ledger.Expenses())
	s.ledger.ClearExpenses()
	s.mu.Unlock()

	s.record(ctx, log.OpClearExpenses, nil, "cleared", n)
}

func (s *LedgerService) Participants(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Participants()
}

func (s *LedgerService) Expenses(ctx context.Context) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Expenses()
}

func (s *LedgerService) ComputeBalances(ctx context.Context) core.Balances {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ComputeBalances()
}

// Snapshot returns participants, expenses and balances from the same state.
func (s *LedgerService) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Participants: s.ledger.Participants(),
		Expenses:     s.ledger.Expenses(),
		Balances:     s.linesLocked(),
		Currency:     s.currency,
	}
}

func (s *LedgerService) linesLocked() []BalanceLine {
	sheet := s.ledger.BalanceSheet()
	lines := make([]BalanceLine, len(sheet))
	for i, row := range sheet {
		lines[i] = BalanceLine{
			Name:    row.Name,
			Balance: row.Balance,
			Message: core.FormatBalanceMessage(row.Name, row.Balance, s.currency),
		}
	}
	return lines
}

// NotifyBalances sends one reminder per current participant.
//
// Balances are computed once, then the lock is released before any gateway
// call. A failed delivery is reported and never stops the others.
func (s *LedgerService) NotifyBalances(ctx context.Context) NotificationReport {
	s.mu.Lock()
	lines := s.linesLocked()
	s.mu.Unlock()

	results := make([]NotificationResult, len(lines))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, line := range lines {
		g.Go(func() error {
			err := s.gateway.Deliver(ctx, s.title, line.Message)
			results[i] = NotificationResult{Participant: line.Name, Message: line.Message, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	report := NotificationReport{Results: results}
	for _, r := range results {
		if r.Err != nil {
			report.Failed++
			s.metrics.Notification(metrics.ResultFailed)
			s.logger.WarnContext(ctx, "Notification failed",
				log.FieldParticipant, r.Participant,
				log.FieldError, r.Err)
			continue
		}
		report.Delivered++
		s.metrics.Notification(metrics.ResultOK)
	}

	s.logger.InfoContext(ctx, "Balance notifications sent",
		log.FieldOperation, log.OpNotify,
		"delivered", report.Delivered,
		"failed", report.Failed)
	return report
}

func (s *LedgerService) record(ctx context.Context, op string, err error, args ...any) {
	if err != nil {
		s.metrics.LedgerOperation(op, metrics.ResultRejected)
		s.logger.InfoContext(ctx, "Ledger operation rejected",
			append([]any{log.FieldOperation, op, log.FieldError, err}, args...)...)
		return
	}
	s.metrics.LedgerOperation(op, metrics.ResultOK)
	s.logger.InfoContext(ctx, "Ledger operation applied",
		append([]any{log.FieldOperation, op}, args...)...)
}
