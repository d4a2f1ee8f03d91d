package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerAdapterBudget(t *testing.T) {
	l := NewRateLimiter(0, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.CheckRateLimit("adapter:whois", 0))
		assert.True(t, l.RecordRequest("adapter:whois", 0))
	}

	assert.False(t, l.CheckRateLimit("adapter:whois", 0))
	assert.False(t, l.RecordRequest("adapter:whois", 0))
	assert.Greater(t, l.CurrentRate("adapter:whois"), 0.0)
}

func TestRateLimiter_DifferentAdaptersHaveIndependentBudgets(t *testing.T) {
	l := NewRateLimiter(0, 1)

	assert.True(t, l.RecordRequest("adapter:nmap", 0))
	assert.False(t, l.RecordRequest("adapter:nmap", 0))
	assert.True(t, l.RecordRequest("adapter:gobuster", 0))
}

func TestRateLimiter_SameAdapterAcrossTargetsSharesOneBudget(t *testing.T) {
	// Two different scan targets hitting the same adapter must share one
	// budget — keying must be by adapter name, not by target.
	l := NewRateLimiter(0, 1)

	assert.True(t, l.RecordRequest("adapter:nmap", 0))
	assert.False(t, l.RecordRequest("adapter:nmap", 0))
}

func TestRateLimiter_GlobalBudget(t *testing.T) {
	l := NewRateLimiter(2, 10)

	assert.True(t, l.RecordRequest("adapter:a", 0))
	assert.True(t, l.RecordRequest("adapter:b", 0))
	assert.False(t, l.RecordRequest("adapter:c", 0))
	assert.Equal(t, 2.0/defaultWindow.Seconds(), l.GlobalRate())
}

func TestRateLimiter_CurrentRate_IsCountDividedByWindowSeconds(t *testing.T) {
	l := NewRateLimiter(0, 5)

	assert.True(t, l.RecordRequest("adapter:whois", 5))
	assert.True(t, l.RecordRequest("adapter:whois", 5))

	want := 2.0 / defaultWindow.Seconds()
	assert.InDelta(t, want, l.CurrentRate("adapter:whois"), 1e-9)
}
