package utils

import (
	"context"
	"time"
)

// after is replaced in tests.
var after = time.After

// WaitFor pauses for d or until the context is done, whichever comes first.
// A done context is reported even when d is not positive.
func WaitFor(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-after(d):
		return nil
	}
}
