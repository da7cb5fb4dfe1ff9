package auth

import (
	"testing"
	"time"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0).UTC() }
}

func TestCodeStableWithinInterval(t *testing.T) {
	a := NewAuthenticator("shared-secret")

	a.now = fixedClock(1_700_000_000)
	first := a.Code()
	a.now = fixedClock(1_700_000_014) // same 15s bucket
	second := a.Code()

	if first != second {
		t.Errorf("codes within one interval differ: %s vs %s", first, second)
	}
	if len(first) != 6 {
		t.Errorf("expected 6-digit code, got %q", first)
	}
}

func TestCodeRotatesAcrossIntervals(t *testing.T) {
	a := NewAuthenticator("shared-secret")

	a.now = fixedClock(1_700_000_000)
	first := a.Code()
	a.now = fixedClock(1_700_000_015)
	second := a.Code()
	a.now = fixedClock(1_700_000_030)
	third := a.Code()

	if first == second && second == third {
		t.Errorf("expected rotation across intervals, all %s", first)
	}
}

func TestVerifyAcceptsAdjacentIntervals(t *testing.T) {
	a := NewAuthenticator("shared-secret")

	a.now = fixedClock(1_700_000_000)
	code := a.Code()

	// One interval later the previous code still verifies.
	a.now = fixedClock(1_700_000_015)
	if !a.Verify(code) {
		t.Error("code from previous interval rejected within window")
	}

	// Two intervals out it is stale.
	a.now = fixedClock(1_700_000_030)
	if a.Verify(code) {
		t.Error("code two intervals old accepted")
	}
}

func TestVerifyZeroWindowIsStrict(t *testing.T) {
	a := NewAuthenticator("shared-secret")
	a.SetWindow(0)

	a.now = fixedClock(1_700_000_000)
	code := a.Code()
	if !a.Verify(code) {
		t.Error("current code rejected")
	}

	a.now = fixedClock(1_700_000_015)
	if a.Verify(code) {
		t.Error("stale code accepted with zero window")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a := NewAuthenticator("secret-a")
	b := NewAuthenticator("secret-b")
	a.now = fixedClock(1_700_000_000)
	b.now = fixedClock(1_700_000_000)

	if b.Verify(a.Code()) {
		t.Error("code from a different secret accepted")
	}
}

func TestDefaultSecretFallback(t *testing.T) {
	a := NewAuthenticator("")
	b := NewAuthenticator(DefaultSecret)
	a.now = fixedClock(1_700_000_000)
	b.now = fixedClock(1_700_000_000)

	if a.Code() != b.Code() {
		t.Error("empty secret must fall back to the default secret")
	}
}
