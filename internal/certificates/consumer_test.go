package certificates

import (
	"context"
	"errors"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/eventra-app/eventra-backend/internal/events"
)

type stubLocks struct {
	held     bool
	setErr   error
	delErr   error
	setCalls []string
	delCalls []string
}

func (s *stubLocks) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.setCalls = append(s.setCalls, key)
	if s.setErr != nil {
		return false, s.setErr
	}
	return !s.held, nil
}

func (s *stubLocks) Del(ctx context.Context, keys ...string) error {
	s.delCalls = append(s.delCalls, keys...)
	return s.delErr
}

func (s *stubLocks) LockKey(scope, id string) string {
	return "ev:lock:" + scope + ":" + id
}

func newTestConsumer(t *testing.T, worker *Worker, locks *stubLocks) *Consumer {
	t.Helper()
	return &Consumer{
		worker:  worker,
		locks:   locks,
		lockTTL: time.Hour,
		logg:    testLogger(),
	}
}

func issuableWorker(t *testing.T, rootID uuid.UUID) (*Worker, *stubMailer) {
	t.Helper()
	ada := uuid.New()
	repo := &stubEventsRepo{
		event:      readyEvent(rootID),
		recipients: []events.Recipient{{UserID: ada, Email: "ada@example.com", FirstName: "Ada"}},
	}
	att := &stubAttendance{hours: map[uuid.UUID]int{ada: 6}}
	mailer := &stubMailer{}
	f := newWorkerFixture(t, repo, &stubLedger{}, att, mailer)
	return f.worker, mailer
}

func jobMessage(t *testing.T, rootID uuid.UUID) *pubsub.Message {
	t.Helper()
	data, attrs, err := NewJobMessage(SendCertificatesPayload{RootEventID: rootID})
	if err != nil {
		t.Fatalf("NewJobMessage: %v", err)
	}
	return &pubsub.Message{ID: "m-1", Data: data, Attributes: attrs}
}

func TestProcessAcksSuccessfulBatch(t *testing.T) {
	rootID := uuid.New()
	worker, mailer := issuableWorker(t, rootID)
	locks := &stubLocks{}
	c := newTestConsumer(t, worker, locks)

	result := c.process(context.Background(), jobMessage(t, rootID))
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(mailer.sent))
	}
	if len(locks.setCalls) != 1 || len(locks.delCalls) != 1 {
		t.Fatalf("lock must be taken and released, got %+v", locks)
	}
	wantKey := "ev:lock:certificates:" + rootID.String()
	if locks.setCalls[0] != wantKey {
		t.Fatalf("unexpected lock key %q", locks.setCalls[0])
	}
}

func TestProcessSkipsUnrelatedJobs(t *testing.T) {
	rootID := uuid.New()
	worker, mailer := issuableWorker(t, rootID)
	locks := &stubLocks{}
	c := newTestConsumer(t, worker, locks)

	msg := jobMessage(t, rootID)
	msg.Attributes[attrJobType] = "SOMETHING_ELSE"

	result := c.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("unrelated jobs must ack, got %+v", result)
	}
	if len(mailer.sent) != 0 || len(locks.setCalls) != 0 {
		t.Fatal("unrelated jobs must not touch worker or locks")
	}
}

func TestProcessAcksMalformedPayload(t *testing.T) {
	rootID := uuid.New()
	worker, _ := issuableWorker(t, rootID)
	c := newTestConsumer(t, worker, &stubLocks{})

	msg := jobMessage(t, rootID)
	msg.Data = []byte("{not-json")

	result := c.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("poison messages must ack, got %+v", result)
	}
}

func TestProcessNacksWhenLockHeld(t *testing.T) {
	rootID := uuid.New()
	worker, mailer := issuableWorker(t, rootID)
	locks := &stubLocks{held: true}
	c := newTestConsumer(t, worker, locks)

	result := c.process(context.Background(), jobMessage(t, rootID))
	if !result.nack {
		t.Fatalf("expected nack while another batch runs, got %+v", result)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("no work may run without the lock")
	}
	if len(locks.delCalls) != 0 {
		t.Fatal("a lock we did not take must not be released")
	}
}

func TestProcessNacksOnLockError(t *testing.T) {
	rootID := uuid.New()
	worker, _ := issuableWorker(t, rootID)
	locks := &stubLocks{setErr: errors.New("redis down")}
	c := newTestConsumer(t, worker, locks)

	result := c.process(context.Background(), jobMessage(t, rootID))
	if !result.nack {
		t.Fatalf("expected nack on lock failure, got %+v", result)
	}
}

func TestProcessAcksNonRetryableBatchFailure(t *testing.T) {
	rootID := uuid.New()
	event := readyEvent(rootID)
	event.CertificateTemplateURL = nil
	f := newWorkerFixture(t, &stubEventsRepo{event: event}, &stubLedger{}, &stubAttendance{}, &stubMailer{})
	locks := &stubLocks{}
	c := newTestConsumer(t, f.worker, locks)

	result := c.process(context.Background(), jobMessage(t, rootID))
	if !result.ack || result.nack {
		t.Fatalf("unconfigured events never become retryable, got %+v", result)
	}
	if len(locks.delCalls) != 1 {
		t.Fatal("lock must be released after a failed batch")
	}
}

func TestProcessNacksRetryableBatchFailure(t *testing.T) {
	rootID := uuid.New()
	repo := &stubEventsRepo{event: readyEvent(rootID)}
	w, err := NewWorker(
		repo, &stubLedger{}, &stubAttendance{},
		&stubFetcher{err: errors.New("cdn unreachable")},
		&stubRenderer{}, &stubMailer{}, nil, testLogger(), 0,
	)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	locks := &stubLocks{}
	c := newTestConsumer(t, w, locks)

	result := c.process(context.Background(), jobMessage(t, rootID))
	if !result.nack {
		t.Fatalf("dependency failures must redeliver, got %+v", result)
	}
	if len(locks.delCalls) != 1 {
		t.Fatal("lock must be released so the retry can run")
	}
}
