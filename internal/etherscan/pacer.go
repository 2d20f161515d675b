package etherscan

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the minimum spacing between live API calls.
const DefaultInterval = 200 * time.Millisecond

// Pacer enforces a minimum interval between calls across goroutines.
type Pacer struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
	now  func() time.Time
}

func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval, now: time.Now}
}

// Wait blocks until the caller may issue the next call.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	now := p.now()
	slot := p.next
	if slot.Before(now) {
		slot = now
	}
	reserved := slot.Add(p.interval)
	p.next = reserved
	p.mu.Unlock()

	delay := slot.Sub(now)
	if delay <= 0 {
		if err := ctx.Err(); err != nil {
			p.release(slot, reserved)
			return err
		}
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		p.release(slot, reserved)
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// release hands an unused slot back unless a later caller already booked
// past it.
func (p *Pacer) release(slot, reserved time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next.Equal(reserved) {
		p.next = slot
	}
}
