package credentials

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock for driving cooldown windows without
// sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCredential(clock *fakeClock) *Credential {
	c := newCredential("sk-test", "test-pool", "test", 5*time.Second, 60*time.Second)
	c.now = clock.Now
	return c
}

// TestCredential_CooldownDoubling verifies the exponential cooldown
// schedule: 5s, 10s, 20s, 40s, then capped at 60s.
func TestCredential_CooldownDoubling(t *testing.T) {
	expected := []time.Duration{
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		60 * time.Second,
		60 * time.Second, // stays capped
	}

	clock := newFakeClock()
	cred := newTestCredential(clock)

	for i, want := range expected {
		cred.ReportRateLimited()
		status := cred.Status()
		assert.Equal(t, want, status.Cooldown, "cooldown after %d consecutive limits", i+1)
		assert.Equal(t, i+1, status.ConsecutiveLimits)
	}
}

// TestCredential_SuccessResets verifies that one success wipes the
// cooldown state regardless of how deep the backoff had grown.
func TestCredential_SuccessResets(t *testing.T) {
	clock := newFakeClock()
	cred := newTestCredential(clock)

	for i := 0; i < 4; i++ {
		cred.ReportRateLimited()
	}
	require.True(t, cred.IsCooling())
	require.Equal(t, 40*time.Second, cred.Status().Cooldown)

	cred.ReportSuccess()

	status := cred.Status()
	assert.False(t, cred.IsCooling(), "success must force Cooling -> Available immediately")
	assert.Equal(t, 0, status.ConsecutiveLimits)
	assert.Equal(t, 5*time.Second, status.Cooldown)
}

// TestCredential_CoolingIsTimeBased verifies the Cooling -> Available
// transition happens purely by time elapsing, with no intervening event.
func TestCredential_CoolingIsTimeBased(t *testing.T) {
	clock := newFakeClock()
	cred := newTestCredential(clock)

	require.False(t, cred.IsCooling(), "never-limited credential is available")

	cred.ReportRateLimited()
	require.True(t, cred.IsCooling())

	clock.Advance(4 * time.Second)
	assert.True(t, cred.IsCooling(), "still inside the 5s window")

	clock.Advance(2 * time.Second)
	assert.False(t, cred.IsCooling(), "window elapsed")

	status := cred.Status()
	assert.False(t, status.Cooling)
	assert.GreaterOrEqual(t, status.CooldownRemaining, time.Duration(0),
		"remaining must never be negative")
}

// TestCredential_CooldownRemainingClamped verifies the status view
// never reports negative remaining time.
func TestCredential_CooldownRemainingClamped(t *testing.T) {
	clock := newFakeClock()
	cred := newTestCredential(clock)

	cred.ReportRateLimited()
	clock.Advance(3 * time.Second)

	status := cred.Status()
	assert.True(t, status.Cooling)
	assert.Equal(t, 2*time.Second, status.CooldownRemaining)

	clock.Advance(time.Hour)
	status = cred.Status()
	assert.False(t, status.Cooling)
	assert.Equal(t, time.Duration(0), status.CooldownRemaining)
}

// TestCredential_ActiveCountNeverNegative hammers acquire/release/report
// from concurrent goroutines, including deliberately unbalanced
// releases, and verifies the in-flight count stays non-negative.
func TestCredential_ActiveCountNeverNegative(t *testing.T) {
	clock := newFakeClock()
	cred := newTestCredential(clock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				switch j % 4 {
				case 0:
					cred.acquire()
					cred.release()
				case 1:
					cred.tryAcquire()
					cred.release()
				case 2:
					cred.release() // unbalanced on purpose
				case 3:
					cred.ReportRateLimited()
					cred.ReportSuccess()
				}
				require.GreaterOrEqual(t, cred.Status().Active, 0)
			}
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, cred.Status().Active, 0)
}

// TestCredential_TotalsMonotone verifies lifetime counters only grow.
func TestCredential_TotalsMonotone(t *testing.T) {
	clock := newFakeClock()
	cred := newTestCredential(clock)

	cred.acquire()
	cred.ReportRateLimited()
	cred.release()
	cred.ReportSuccess()
	cred.acquire()
	cred.release()

	status := cred.Status()
	assert.Equal(t, int64(2), status.TotalRequests)
	assert.Equal(t, int64(1), status.TotalLimited)
}
