// Package auth implements the time-based one-time codes guarding mutating
// API endpoints.
package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// DefaultSecret is used when no secret is configured. Deployments
	// should always override it.
	DefaultSecret = "STOCKROBO_SECURE_KEY"

	// Interval is the code rotation period.
	Interval = 15 * time.Second

	// DefaultWindow is how many adjacent intervals Verify accepts, in each
	// direction, to absorb clock skew.
	DefaultWindow = 1

	digits = 1000000 // 6-digit codes
)

// Authenticator produces and verifies rotating 6-digit codes.
type Authenticator struct {
	secret []byte
	window int
	now    func() time.Time
}

// NewAuthenticator creates an authenticator for the given shared secret.
// An empty secret falls back to DefaultSecret.
func NewAuthenticator(secret string) *Authenticator {
	if secret == "" {
		secret = DefaultSecret
	}
	return &Authenticator{
		secret: []byte(secret),
		window: DefaultWindow,
		now:    time.Now,
	}
}

// SetWindow overrides the verification window.
func (a *Authenticator) SetWindow(window int) {
	if window >= 0 {
		a.window = window
	}
}

// Code returns the code for the current interval.
func (a *Authenticator) Code() string {
	return a.codeAt(a.counter(a.now()))
}

// Verify checks a code against the current interval and its neighbors
// within the configured window.
func (a *Authenticator) Verify(code string) bool {
	counter := a.counter(a.now())
	for offset := -int64(a.window); offset <= int64(a.window); offset++ {
		if a.codeAt(uint64(int64(counter)+offset)) == code {
			return true
		}
	}
	return false
}

func (a *Authenticator) counter(t time.Time) uint64 {
	return uint64(t.Unix() / int64(Interval.Seconds()))
}

// codeAt computes the HOTP value for a counter: HMAC-SHA1 over the
// big-endian counter, dynamically truncated to 31 bits, reduced mod 10^6.
func (a *Authenticator) codeAt(counter uint64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, a.secret)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0F
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7FFFFFFF

	return fmt.Sprintf("%06d", value%digits)
}
