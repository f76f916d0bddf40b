package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	now := time.Unix(1000, 0)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 2}

	for i := 0; i < 2; i++ {
		allowed, _ := limiter.Allow("ip", rule)
		if !allowed {
			t.Fatalf("request %d should be allowed within burst", i)
		}
	}

	allowed, wait := limiter.Allow("ip", rule)
	if allowed {
		t.Fatalf("request beyond burst should be blocked")
	}
	if wait <= 0 {
		t.Fatalf("expected positive retry-after, got %v", wait)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Unix(1000, 0)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	if allowed, _ := limiter.Allow("ip", rule); !allowed {
		t.Fatalf("first request should be allowed")
	}
	if allowed, _ := limiter.Allow("ip", rule); allowed {
		t.Fatalf("second immediate request should be blocked")
	}

	now = now.Add(2 * time.Second)
	if allowed, _ := limiter.Allow("ip", rule); !allowed {
		t.Fatalf("request after refill should be allowed")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	now := time.Unix(1000, 0)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	if allowed, _ := limiter.Allow("ip-a", rule); !allowed {
		t.Fatalf("ip-a should be allowed")
	}
	if allowed, _ := limiter.Allow("ip-b", rule); !allowed {
		t.Fatalf("ip-b should be allowed independently")
	}
}

func TestZeroRuleDisablesLimiting(t *testing.T) {
	limiter := NewRateLimiter(nil)
	for i := 0; i < 100; i++ {
		if allowed, _ := limiter.Allow("ip", RateLimitRule{}); !allowed {
			t.Fatalf("zero rule must never block")
		}
	}
}
