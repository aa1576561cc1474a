package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef defines a public type used by goSession APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goSession APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// GaugeDef maps one field of the session introspection report to an
// exported gauge. Value reads the field; exporters publish whatever it
// returns at collection time.
type GaugeDef struct {
	Name  string
	Help  string
	Value func(report goSession.SessionReport) int64
}

// CounterDefs is an exported constant or variable used by the session engine.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricHandshakeSettled, Name: "gosession_handshake_settled_total", Help: "Settled token handshakes, any source."},
	{ID: goSession.MetricSettleCarrier, Name: "gosession_settle_carrier_total", Help: "Handshakes settled from a carrier parameter."},
	{ID: goSession.MetricSettleStored, Name: "gosession_settle_stored_total", Help: "Handshakes settled from the durable token store."},
	{ID: goSession.MetricSettleHost, Name: "gosession_settle_host_total", Help: "Handshakes settled from a host reply."},
	{ID: goSession.MetricSettleTimeout, Name: "gosession_settle_timeout_total", Help: "Handshakes that gave up waiting and settled anonymous."},
	{ID: goSession.MetricSettleNone, Name: "gosession_settle_none_total", Help: "Handshakes settled anonymous without a token source."},
	{ID: goSession.MetricDuplicateReply, Name: "gosession_duplicate_reply_total", Help: "Host replies that arrived after settlement."},
	{ID: goSession.MetricResolveSuccess, Name: "gosession_resolve_success_total", Help: "Identity resolutions that produced an identity."},
	{ID: goSession.MetricResolveUnauthenticated, Name: "gosession_resolve_unauthenticated_total", Help: "Identity resolutions that rejected the token."},
	{ID: goSession.MetricResolveFailure, Name: "gosession_resolve_failure_total", Help: "Identity resolutions that failed."},
	{ID: goSession.MetricStaleResultDiscarded, Name: "gosession_stale_result_discarded_total", Help: "Async results discarded because the session moved on."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful token refreshes."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: goSession.MetricRefreshTimeout, Name: "gosession_refresh_timeout_total", Help: "Token refreshes abandoned by the watchdog."},
	{ID: goSession.MetricTokenExpired, Name: "gosession_token_expired_total", Help: "Tokens dropped at expiry."},
	{ID: goSession.MetricCachePurged, Name: "gosession_cache_purged_total", Help: "Credential cache purges."},
	{ID: goSession.MetricGuardRedirect, Name: "gosession_guard_redirect_total", Help: "Route evaluations that redirected the session."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logout operations."},
	{ID: goSession.MetricRevokeFailure, Name: "gosession_revoke_failure_total", Help: "Best-effort session revocations that failed."},
	{ID: goSession.MetricStoreFailure, Name: "gosession_store_failure_total", Help: "Token store operations that failed."},
}

// HistogramDefs is an exported constant or variable used by the session engine.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricHandshakeLatency, Name: "gosession_handshake_latency_seconds", Help: "Handshake settle latency histogram."},
}

// HistogramLe lists the upper bounds of the handshake latency histogram
// as Prometheus le labels, in bucket order. The 3s bound matches the
// default handshake give-up timeout.
var HistogramLe = []string{
	"0.01",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"3",
	"+Inf",
}

// PostureDefs is an exported constant or variable used by the session engine.
// One gauge per introspection field worth watching on a dashboard; all
// boolean fields export as 0/1.
var PostureDefs = []GaugeDef{
	{
		Name:  "gosession_session_settled",
		Help:  "Whether the token handshake has settled (1) or is still pending (0).",
		Value: func(r goSession.SessionReport) int64 { return boolGauge(r.Settled) },
	},
	{
		Name:  "gosession_session_authenticated",
		Help:  "Whether a resolved identity is present (1) or the session is anonymous (0).",
		Value: func(r goSession.SessionReport) int64 { return boolGauge(r.Authenticated) },
	},
	{
		Name:  "gosession_identity_loading",
		Help:  "Whether an identity resolution is in flight (1) or not (0).",
		Value: func(r goSession.SessionReport) int64 { return boolGauge(r.IdentityLoading) },
	},
	{
		Name:  "gosession_refresh_in_flight",
		Help:  "Whether a token refresh exchange is in flight (1) or not (0).",
		Value: func(r goSession.SessionReport) int64 { return boolGauge(r.RefreshInFlight) },
	},
	{
		Name:  "gosession_state_version",
		Help:  "Monotonic session state version; one step per transition.",
		Value: func(r goSession.SessionReport) int64 { return int64(r.StateVersion) },
	},
}

func boolGauge(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Cumulative folds a raw bucket slice into running totals, sized and
// ordered like [HistogramLe]. Short or missing input reads as zeroes.
func Cumulative(raw []uint64) []uint64 {
	out := make([]uint64, len(HistogramLe))
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
