package healthsync

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"
)

var pacerEpoch = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// testPacer pins the clock and records what wait would have slept.
func testPacer() (*pacer, *[]time.Duration) {
	p := newPacer()
	p.now = func() time.Time { return pacerEpoch }
	slept := &[]time.Duration{}
	p.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return p, slept
}

func quotaHeaders(remaining int, resetAt time.Time) http.Header {
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	return h
}

func TestPacerFirstRequestUnthrottled(t *testing.T) {
	p, slept := testPacer()

	if err := p.wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if (*slept)[0] != 0 {
		t.Errorf("first wait slept %v, want 0", (*slept)[0])
	}
}

func TestPacerSpacesRequests(t *testing.T) {
	p, slept := testPacer()
	ctx := context.Background()

	p.wait(ctx)
	p.wait(ctx)

	if got := (*slept)[1]; got != requestSpacing {
		t.Errorf("second wait slept %v, want %v", got, requestSpacing)
	}
}

func TestPacerHonorsRetryAfter(t *testing.T) {
	p, slept := testPacer()

	h := http.Header{}
	h.Set("Retry-After", "7")
	p.observe(http.StatusTooManyRequests, h)

	p.wait(context.Background())
	if got := (*slept)[0]; got != 7*time.Second {
		t.Errorf("wait after 429 slept %v, want 7s", got)
	}
}

func TestPacer429WithoutHeaderUsesDefault(t *testing.T) {
	p, slept := testPacer()

	p.observe(http.StatusTooManyRequests, http.Header{})

	p.wait(context.Background())
	if got := (*slept)[0]; got != defaultRetryAfter {
		t.Errorf("wait after bare 429 slept %v, want %v", got, defaultRetryAfter)
	}
}

func TestPacerReserveWaitsForReset(t *testing.T) {
	p, slept := testPacer()
	reset := pacerEpoch.Add(time.Minute)

	p.observe(http.StatusOK, quotaHeaders(quotaReserve, reset))

	p.wait(context.Background())
	if got := (*slept)[0]; got != time.Minute {
		t.Errorf("wait at reserve slept %v, want 1m", got)
	}
}

func TestPacerQuotaAboveReserveFlows(t *testing.T) {
	p, slept := testPacer()
	reset := pacerEpoch.Add(time.Minute)

	p.observe(http.StatusOK, quotaHeaders(40, reset))

	p.wait(context.Background())
	if got := (*slept)[0]; got != 0 {
		t.Errorf("wait with quota slept %v, want 0", got)
	}
	if got := p.quotaRemaining(); got != 39 {
		t.Errorf("quotaRemaining = %d, want 39", got)
	}
}

func TestPacerQuotaUnknownBeforeFirstResponse(t *testing.T) {
	p, _ := testPacer()
	if got := p.quotaRemaining(); got != -1 {
		t.Errorf("quotaRemaining = %d, want -1", got)
	}
}
