package server

import (
	"testing"
	"time"
)

func TestRateLimiterEnforcesWindowLimit(t *testing.T) {
	limiter := newRateLimiter(2, time.Minute)

	if !limiter.Allow("10.0.0.1") || !limiter.Allow("10.0.0.1") {
		t.Fatal("expected first two requests allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("expected third request in window denied")
	}
	// Other clients keep their own budget.
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("expected separate client allowed")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	limiter := newRateLimiter(1, 10*time.Millisecond)

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("expected first request allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("expected second request denied")
	}
	time.Sleep(20 * time.Millisecond)
	if !limiter.Allow("10.0.0.1") {
		t.Fatal("expected request allowed after window expiry")
	}
}

func TestRateLimiterRejectsEmptyKey(t *testing.T) {
	limiter := newRateLimiter(5, time.Minute)
	if limiter.Allow("") {
		t.Fatal("expected empty key denied")
	}
}
