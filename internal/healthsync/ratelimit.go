package healthsync

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// VeloHub meters each API client with a single rolling quota and
// reports it through standard headers on every response:
//
//	X-RateLimit-Remaining: requests left in the current window
//	X-RateLimit-Reset:     unix seconds when the window rolls over
//
// An exhausted quota gets a 429 with Retry-After in seconds. The pacer
// spaces outgoing requests and honors both signals, holding back a
// small reserve of the quota so a sync never starves ad-hoc queries.
const (
	requestSpacing    = 200 * time.Millisecond
	quotaReserve      = 3
	defaultRetryAfter = 30 * time.Second
)

type pacer struct {
	mu sync.Mutex

	remaining  int // per the last response, -1 until one is seen
	resetAt    time.Time
	retryUntil time.Time // server-ordered pause from a 429
	lastSent   time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func newPacer() *pacer {
	return &pacer{
		remaining: -1,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wait blocks until the next request may be sent: after any 429 pause,
// after the window reset when the quota is down to the reserve, and at
// least requestSpacing after the previous send.
func (p *pacer) wait(ctx context.Context) error {
	p.mu.Lock()
	now := p.now()
	var d time.Duration
	if until := p.retryUntil.Sub(now); until > d {
		d = until
	}
	if p.remaining >= 0 && p.remaining <= quotaReserve && now.Before(p.resetAt) {
		if until := p.resetAt.Sub(now); until > d {
			d = until
		}
	}
	if !p.lastSent.IsZero() {
		if gap := requestSpacing - now.Sub(p.lastSent); gap > d {
			d = gap
		}
	}
	p.mu.Unlock()

	if err := p.sleep(ctx, d); err != nil {
		return err
	}

	p.mu.Lock()
	p.lastSent = p.now()
	if p.remaining > 0 {
		p.remaining--
	}
	p.mu.Unlock()
	return nil
}

// observe folds a response's quota headers into the pacer. A 429
// schedules the Retry-After pause for the next wait.
func (p *pacer) observe(status int, h http.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.remaining = n
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.resetAt = time.Unix(sec, 0)
		}
	}

	if status == http.StatusTooManyRequests {
		pause := defaultRetryAfter
		if v := h.Get("Retry-After"); v != "" {
			if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
				pause = time.Duration(sec) * time.Second
			}
		}
		p.retryUntil = p.now().Add(pause)
	}
}

// quotaRemaining reports the quota left in the current window, or -1
// before the first response has been seen.
func (p *pacer) quotaRemaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remaining
}
