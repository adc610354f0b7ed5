package core

import "fmt"

// Balances maps each participant to their net position. Positive means the
// participant is owed money, negative means they owe.
type Balances map[string]float64

// ParticipantBalance is one row of a BalanceSheet.
type ParticipantBalance struct {
	Name    string
	Balance float64
}

// ComputeBalances derives every participant's balance from scratch.
//
// Each expense is split evenly across the participants present now, not the
// ones present when the expense was recorded: adding or removing someone
// changes the share of every existing expense.
func (l *Ledger) ComputeBalances() Balances {
	balances := make(Balances, len(l.participants))
	for _, p := range l.participants {
		balances[p] = 0
	}
	if len(l.participants) == 0 {
		return balances
	}

	n := float64(len(l.participants))
	for _, e := range l.expenses {
		share := e.Amount / n
		for _, p := range l.participants {
			if p == e.Payer {
				balances[p] += e.Amount - share
			} else {
				balances[p] -= share
			}
		}
	}
	return balances
}

// BalanceSheet returns the balances ordered like the participant list.
func (l *Ledger) BalanceSheet() []ParticipantBalance {
	balances := l.ComputeBalances()
	sheet := make([]ParticipantBalance, 0, len(l.participants))
	for _, p := range l.participants {
		sheet = append(sheet, ParticipantBalance{Name: p, Balance: balances[p]})
	}
	return sheet
}

// Total sums the balances. It is zero up to floating point drift.
func (b Balances) Total() float64 {
	var sum float64
	for _, v := range b {
		sum += v
	}
	return sum
}

// FormatBalanceMessage renders the reminder text sent to a participant.
func FormatBalanceMessage(name string, balance float64, currency string) string {
	if balance > 0 {
		return fmt.Sprintf("%s is owed %s%.2f", name, currency, balance)
	}
	owed := -balance
	if owed == 0 {
		// avoid printing "-0.00"
		owed = 0
	}
	return fmt.Sprintf("%s owes %s%.2f", name, currency, owed)
}
