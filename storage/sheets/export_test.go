package sheets

import (
	"context"
	"sync"
	"time"
)

// MockSleep records the waits of the retry schedule instead of sleeping.
// Read the waits once the store calls are done.
func MockSleep() (waits *[]time.Duration, restore func()) {
	orig := sleepFunc
	var (
		mu sync.Mutex
		ws []time.Duration
	)
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		ws = append(ws, d)
		mu.Unlock()
		return ctx.Err()
	}
	return &ws, func() { sleepFunc = orig }
}
