package interfaces

import (
	"context"
	"time"
)

// CountdownCache holds the UI-facing "time remaining" value the timer
// coordinator refreshes on every tick, plus the visual ready flag set when
// a preparation countdown elapses. Values are advisory; firing decisions
// are always made against the order's absolute deadlines.
type CountdownCache interface {
	SetRemaining(ctx context.Context, orderID, purpose string, remaining time.Duration) error
	GetRemaining(ctx context.Context, orderID, purpose string) (time.Duration, bool, error)
	MarkReady(ctx context.Context, orderID string) error
	IsReady(ctx context.Context, orderID string) (bool, error)
	Clear(ctx context.Context, orderID string) error
}
