package memory

import (
	"context"
	"sync"
	"time"

	"splitter/internal/gateway"
	"splitter/internal/log"
)

// Delivery is one recorded notification.
type Delivery struct {
	Title string
	Body  string
	At    time.Time
}

// Gateway keeps every delivered notification in memory and logs it.
type Gateway struct {
	mu         sync.Mutex
	deliveries []Delivery
	logger     *log.Logger
	now        func() time.Time
}

var _ gateway.Gateway = (*Gateway)(nil)

func New(logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Discard()
	}
	return &Gateway{
		logger: logger.WithComponent(log.ComponentMemory),
		now:    time.Now,
	}
}

// Deliver records the notification. It only fails when ctx is already done.
func (g *Gateway) Deliver(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	g.deliveries = append(g.deliveries, Delivery{Title: title, Body: body, At: g.now()})
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "Notification delivered", "title", title, "body", body)
	return nil
}

// Deliveries returns a copy of everything delivered so far, oldest first.
func (g *Gateway) Deliveries() []Delivery {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Delivery(nil), g.deliveries...)
}

// Reset forgets recorded deliveries.
func (g *Gateway) Reset() {
	g.mu.Lock()
	g.deliveries = nil
	g.mu.Unlock()
}
