package goSession

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/clock"
)

func auditTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	return cfg
}

func nextAuditEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("audit event not delivered")
		return AuditEvent{}
	}
}

func TestAuditTrailForSessionLifecycle(t *testing.T) {
	stored := mintTestToken(t, clock.Fake(testEpoch), 30*24*time.Hour)
	st := newRecordingStore(stored)
	sink := NewChannelSink(64)
	rev := &stubRevoker{}
	m, _ := buildTestManager(t, func(b *Builder) {
		b.WithConfig(auditTestConfig()).WithStore(st).WithRevoker(rev).WithAuditSink(sink)
	})
	startManager(t, m)
	awaitSettled(t, m)

	settle := nextAuditEvent(t, sink)
	if settle.EventType != "handshake_settled" || settle.Source != "stored" || !settle.Success {
		t.Fatalf("first event = %+v, want successful stored settlement", settle)
	}
	if settle.TokenFP == "" || settle.TokenFP == stored || len(settle.TokenFP) != 12 {
		t.Fatalf("settlement fingerprint %q leaks or is malformed", settle.TokenFP)
	}
	if !settle.Timestamp.Equal(testEpoch) || settle.Timestamp.Location() != time.UTC {
		t.Fatalf("settlement timestamp = %v, want the fake instant in UTC", settle.Timestamp)
	}
	if settle.Metadata["latency"] == "" {
		t.Fatal("settlement event missing latency metadata")
	}

	resolved := nextAuditEvent(t, sink)
	if resolved.EventType != "identity_resolved" || resolved.UserID != "user-1" || resolved.Role != "client" {
		t.Fatalf("second event = %+v, want identity_resolved for user-1/client", resolved)
	}

	m.Logout(context.Background())
	logout := nextAuditEvent(t, sink)
	if logout.EventType != "logout" || !logout.Success {
		t.Fatalf("third event = %+v, want logout", logout)
	}
	if logout.UserID != "user-1" || logout.Role != "client" {
		t.Fatalf("logout event lost the prior identity: %+v", logout)
	}
	if logout.TokenFP == stored {
		t.Fatal("logout event leaks the token value")
	}

	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected extra audit event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
	if got := m.AuditDropped(); got != 0 {
		t.Fatalf("dropped = %d with a drained sink, want 0", got)
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	stored := mintTestToken(t, clock.Fake(testEpoch), 30*24*time.Hour)
	sink := NewChannelSink(16)
	m, _ := buildTestManager(t, func(b *Builder) {
		// Default config: auditing stays off even with a sink attached.
		b.WithStore(newRecordingStore(stored)).WithAuditSink(sink)
	})
	startManager(t, m)
	waitForState(t, m, func(s SessionState) bool { return s.Identity != nil })
	m.Logout(context.Background())

	select {
	case ev := <-sink.Events():
		t.Fatalf("audit disabled but event delivered: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
	if got := m.AuditDropped(); got != 0 {
		t.Fatalf("dropped = %d with auditing disabled, want 0", got)
	}
}

// blockingSink wedges the dispatcher worker until released, forcing
// the drop-if-full path.
type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(ctx context.Context, _ AuditEvent) {
	select {
	case <-s.release:
	case <-ctx.Done():
	}
}

func TestAuditBackpressureDropsAndCounts(t *testing.T) {
	stored := mintTestToken(t, clock.Fake(testEpoch), 30*24*time.Hour)
	sink := &blockingSink{release: make(chan struct{})}
	cfg := auditTestConfig()
	cfg.Audit.BufferSize = 1
	m, _ := buildTestManager(t, func(b *Builder) {
		b.WithConfig(cfg).WithStore(newRecordingStore(stored)).WithAuditSink(sink)
	})
	// Unwedge the worker before the manager's Close drains the queue.
	t.Cleanup(func() { close(sink.release) })

	startManager(t, m)
	waitForState(t, m, func(s SessionState) bool { return s.Identity != nil })
	m.Logout(context.Background())

	waitFor(t, func() bool { return m.AuditDropped() >= 1 }, "no events dropped under backpressure")
	if got := m.Introspect().AuditDropped; got < 1 {
		t.Fatalf("introspection reports %d dropped events, want >= 1", got)
	}
}
