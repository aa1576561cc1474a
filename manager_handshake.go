package goSession

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/token"
)

// Start describes the start operation and its observable behavior.
//
// Start may return an error when input validation, dependency calls, or security checks fail.
//
// Start launches the token handshake and returns once the acquisition
// path is underway; settlement is delivered through
// [Manager.AwaitSettlement] and state subscribers. ctx governs the
// whole run: background store calls, identity resolution, and refresh
// exchanges derive from it.
//
// Acquisition sources, in priority order with a single winner:
// a transient carrier parameter (scrubbed on take), the stored token
// when no channel is configured, exactly one host reply when one is,
// and the bounded-wait timer, which settles the session as anonymous.
func (m *Manager) Start(ctx context.Context) error {
	if m.closed.Load() {
		return ErrManagerClosed
	}
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m.runCtx, m.runCancel = context.WithCancel(ctx)
	if m.closed.Load() {
		m.runCancel()
		return ErrManagerClosed
	}
	m.startedAt = m.clock.Now()

	log := m.log.With().Str("attempt_id", uuid.NewString()).Logger()

	// Source 1: transient carrier parameter. TakeToken scrubs the
	// carrier in place; the token must never survive there.
	if m.carrier != nil {
		if tok, ok := m.carrier.TakeToken(); ok {
			m.trySettle(tok, SourceCarrier, log)
			return nil
		}
	}

	// Source 2: no channel means this process owns its session; the
	// stored token is adopted without delay, an empty store settles
	// anonymous immediately.
	if m.channel == nil {
		stored, err := m.store.Get(m.runCtx)
		if err != nil {
			m.metricInc(MetricStoreFailure)
			log.Warn().Err(err).Msg("token store read failed")
			stored = ""
		}
		if stored != "" {
			m.trySettle(stored, SourceStored, log)
		} else {
			m.trySettle("", SourceNone, log)
		}
		return nil
	}

	// Sources 3 and 4: embedded. Ask the host, honor exactly one
	// reply, give up after the handshake timeout. The receive loop is
	// running before the request goes out so a fast reply cannot slip
	// past it.
	m.timerMu.Lock()
	m.handshakeTimer = m.clock.AfterFunc(m.config.Handshake.Timeout, func() {
		m.trySettle("", SourceTimeout, log)
	})
	m.timerMu.Unlock()

	go m.receiveReplies(log)

	if err := m.channel.RequestToken(m.runCtx); err != nil {
		// The timer keeps running: a request that cannot be sent ends
		// in an anonymous timeout settle, not an error.
		log.Warn().Err(err).Msg("token request signal failed")
	}

	return nil
}

// receiveReplies drains the reply stream for the life of the manager.
// The loop outlives settlement on purpose: late replies must keep
// being consumed and discarded, and the stream closing is the shared
// teardown signal with the host side.
func (m *Manager) receiveReplies(log zerolog.Logger) {
	for reply := range m.channel.Replies() {
		m.trySettle(reply.Token, SourceHost, log)
	}
	log.Debug().Msg("handshake reply stream closed")
}

// trySettle is the single-winner gate. The first caller claims the
// handshake and runs settlement; every later call, from any source, is
// duplicate bookkeeping forever.
func (m *Manager) trySettle(tok string, source SettleSource, log zerolog.Logger) {
	if !m.accepted.CompareAndSwap(false, true) {
		m.noteDuplicate(tok, source, log)
		return
	}
	m.settle(tok, source, log)
}

func (m *Manager) noteDuplicate(tok string, source SettleSource, log zerolog.Logger) {
	// A timer firing just after a reply won is an ordinary race, only
	// host replies count as duplicates.
	if source != SourceHost {
		log.Debug().Str("source", source.String()).Msg("handshake already settled")
		return
	}

	m.metricInc(MetricDuplicateReply)
	m.emitAudit(AuditEvent{
		EventType: auditEventDuplicateReply,
		Source:    source.String(),
		TokenFP:   token.Fingerprint(tok),
		Success:   false,
	})
	log.Debug().
		Str("token_fp", token.Fingerprint(tok)).
		Msg("late handshake reply ignored")
}

func (m *Manager) settle(tok string, source SettleSource, log zerolog.Logger) {
	m.timerMu.Lock()
	if m.handshakeTimer != nil {
		m.handshakeTimer.Stop()
		m.handshakeTimer = nil
	}
	m.timerMu.Unlock()

	// Persistence strictly precedes in-memory adoption: a crash after
	// this point rehydrates the same token instead of replaying the
	// handshake against a host that already answered.
	if tok != "" && source != SourceStored {
		if err := m.store.Set(m.runCtx, tok); err != nil {
			m.metricInc(MetricStoreFailure)
			log.Warn().Err(err).Msg("token store write failed")
		}
	}

	m.settlement = Settlement{Token: tok, Source: source}
	close(m.settledCh)

	latency := m.clock.Now().Sub(m.startedAt)
	m.metricInc(MetricHandshakeSettled)
	m.metricInc(settleMetric(source))
	m.metricObserve(MetricHandshakeLatency, latency)

	m.emitAudit(AuditEvent{
		EventType: auditEventHandshakeSettled,
		Source:    source.String(),
		TokenFP:   token.Fingerprint(tok),
		Success:   tok != "",
		Metadata:  map[string]string{"latency": latency.String()},
	})

	log.Info().
		Str("source", source.String()).
		Str("token_fp", token.Fingerprint(tok)).
		Dur("latency", latency).
		Bool("anonymous", tok == "").
		Msg("handshake settled")

	m.owner.apply(func(s *SessionState) {
		s.Token = tok
		s.HandshakeComplete = true
	})
}

func settleMetric(source SettleSource) MetricID {
	switch source {
	case SourceCarrier:
		return MetricSettleCarrier
	case SourceStored:
		return MetricSettleStored
	case SourceHost:
		return MetricSettleHost
	case SourceTimeout:
		return MetricSettleTimeout
	default:
		return MetricSettleNone
	}
}
