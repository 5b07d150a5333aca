package token

import "time"

// Policy captures the refresh-token expiration rules. Durations rather
// than day counts so tests can compress time.
type Policy struct {
	Lifetime      time.Duration
	SlidingWindow bool
	WindowPeriod  time.Duration
	MaxLifetime   time.Duration
}

// NextExpiry computes the expiry for a token created or rotated at now.
// anchor is the original creation time of the rotation chain; pass the
// zero time when there is no prior token (fresh login).
//
// With sliding expiration enabled and now falling inside the window
// [E0-W, E0) before the chain's current expiry E0 = anchor + Lifetime,
// the new expiry is min(E0+Lifetime, anchor+MaxLifetime, now+Lifetime)
// and the anchor is preserved, so continuous just-in-time renewal can
// never push a chain past anchor+MaxLifetime. In every other case the
// token gets a plain now+Lifetime expiry and the chain re-anchors at
// now.
func (p Policy) NextExpiry(now, anchor time.Time) (expiresAt, newAnchor time.Time) {
	plain := now.Add(p.Lifetime)

	if !p.SlidingWindow || anchor.IsZero() {
		return plain, now
	}

	originalExpiry := anchor.Add(p.Lifetime)
	windowStart := originalExpiry.Add(-p.WindowPeriod)

	if now.Before(windowStart) || !now.Before(originalExpiry) {
		return plain, now
	}

	expiresAt = minTime(
		originalExpiry.Add(p.Lifetime),
		anchor.Add(p.MaxLifetime),
		plain,
	)
	return expiresAt, anchor
}

func minTime(first time.Time, rest ...time.Time) time.Time {
	min := first
	for _, t := range rest {
		if t.Before(min) {
			min = t
		}
	}
	return min
}
