// Package gateway defines the outbound port that carries balance reminders
// to people.
package gateway

import "context"

// Gateway delivers one human-readable notification.
//
// Implementations must be safe for concurrent use: the ledger service calls
// Deliver from several goroutines at once.
type Gateway interface {
	Deliver(ctx context.Context, title, body string) error
}

// Func adapts a plain function to Gateway.
type Func func(ctx context.Context, title, body string) error

func (f Func) Deliver(ctx context.Context, title, body string) error {
	return f(ctx, title, body)
}
