package internaldefs

import (
	tokengate "github.com/tokengate/tokengate"
)

// CounterDef binds one engine counter to its stable exported name.
type CounterDef struct {
	ID   tokengate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter. Both exporters iterate this
// slice so their metric names never diverge.
var CounterDefs = []CounterDef{
	{ID: tokengate.MetricTokensIssued, Name: "tokengate_tokens_issued_total", Help: "Refresh tokens issued."},
	{ID: tokengate.MetricTokensRotated, Name: "tokengate_tokens_rotated_total", Help: "Successful refresh-token rotations."},
	{ID: tokengate.MetricRotateFailures, Name: "tokengate_rotate_failures_total", Help: "Rejected rotation attempts."},
	{ID: tokengate.MetricReuseDetected, Name: "tokengate_reuse_detected_total", Help: "Revoked tokens presented again."},
	{ID: tokengate.MetricTheftDetected, Name: "tokengate_theft_detected_total", Help: "Client binding mismatches triggering breach containment."},
	{ID: tokengate.MetricTokensRevoked, Name: "tokengate_tokens_revoked_total", Help: "Refresh tokens revoked."},
	{ID: tokengate.MetricSessionsEvicted, Name: "tokengate_sessions_evicted_total", Help: "Sessions evicted by the concurrent session cap."},
	{ID: tokengate.MetricBlacklistHits, Name: "tokengate_blacklist_hits_total", Help: "Requests rejected by the blacklist fast path."},
	{ID: tokengate.MetricLoginSuccess, Name: "tokengate_login_success_total", Help: "Successful logins."},
	{ID: tokengate.MetricLoginFailure, Name: "tokengate_login_failure_total", Help: "Failed logins."},
}
