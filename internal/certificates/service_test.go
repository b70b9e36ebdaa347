package certificates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra-app/eventra-backend/internal/events"
	"github.com/eventra-app/eventra-backend/pkg/db/models"
	"github.com/eventra-app/eventra-backend/pkg/enums"
	pkgerrors "github.com/eventra-app/eventra-backend/pkg/errors"
	"github.com/eventra-app/eventra-backend/pkg/logger"
	"github.com/eventra-app/eventra-backend/pkg/types"
)

type stubEventsRepo struct {
	event         *models.Event
	eventErr      error
	recipients    []events.Recipient
	recipientsErr error
}

func (s *stubEventsRepo) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	if s.eventErr != nil {
		return nil, s.eventErr
	}
	if s.event == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.event, nil
}

func (s *stubEventsRepo) ListGroupEvents(ctx context.Context, rootEventID uuid.UUID) ([]models.Event, error) {
	return nil, nil
}

func (s *stubEventsRepo) ListApprovedRecipients(ctx context.Context, rootEventID uuid.UUID) ([]events.Recipient, error) {
	return s.recipients, s.recipientsErr
}

func (s *stubEventsRepo) ListUserAttendance(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) ([]models.AttendanceRecord, error) {
	return nil, nil
}

type stubLedger struct {
	entries   []models.CertificateLog
	byUser    map[uuid.UUID]models.CertificateLog
	listErr   error
	upsertErr error
	upserts   []models.CertificateLog
}

func (s *stubLedger) Upsert(ctx context.Context, userID, eventID uuid.UUID, status enums.CertificateStatus, detail *string) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, models.CertificateLog{
		UserID: userID, EventID: eventID, Status: status, Detail: detail,
	})
	return nil
}

func (s *stubLedger) Get(ctx context.Context, userID, eventID uuid.UUID) (*models.CertificateLog, error) {
	if entry, ok := s.byUser[userID]; ok {
		return &entry, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLedger) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.CertificateLog, error) {
	return s.entries, s.listErr
}

type stubPublisher struct {
	err       error
	published [][]byte
	attrs     []map[string]string
}

func (s *stubPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, data)
	s.attrs = append(s.attrs, attrs)
	return nil
}

func validLayout() *types.CertificateLayout {
	return &types.CertificateLayout{
		Name:  types.FieldPlacement{X: 100, Y: 100, FontSize: 24, Color: "#000000"},
		Hours: types.FieldPlacement{X: 100, Y: 150, FontSize: 18, Color: "#000000"},
	}
}

func readyEvent(id uuid.UUID) *models.Event {
	url := "https://cdn.example.com/template.png"
	return &models.Event{
		ID:                     id,
		Title:                  "Annual Conference",
		StartsAt:               time.Now().Add(-48 * time.Hour),
		EndsAt:                 time.Now().Add(-40 * time.Hour),
		CertificateTemplateURL: &url,
		CertificateLayout:      validLayout(),
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func newService(t *testing.T, repo events.Repository, ledger LedgerRepository, pub JobPublisher) Service {
	t.Helper()
	svc, err := NewService(repo, ledger, pub, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestTriggerQueuesJob(t *testing.T) {
	rootID := uuid.New()
	repo := &stubEventsRepo{
		event: readyEvent(rootID),
		recipients: []events.Recipient{
			{UserID: uuid.New(), Email: "a@example.com", FirstName: "Ada"},
			{UserID: uuid.New(), Email: "b@example.com", FirstName: "Grace"},
		},
	}
	pub := &stubPublisher{}
	svc := newService(t, repo, &stubLedger{}, pub)

	result, err := svc.Trigger(context.Background(), rootID, "organizer@example.com")
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if result.Recipients != 2 {
		t.Fatalf("expected 2 recipients, got %d", result.Recipients)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one published job, got %d", len(pub.published))
	}
	if got := pub.attrs[0][attrJobType]; got != string(enums.JobSendCertificates) {
		t.Fatalf("unexpected job type attribute %q", got)
	}

	payload, err := DecodeJobPayload(pub.published[0])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.RootEventID != rootID {
		t.Fatalf("payload carries wrong event id %s", payload.RootEventID)
	}
	if payload.NotifyAddress != "organizer@example.com" {
		t.Fatalf("payload lost notify address: %q", payload.NotifyAddress)
	}
}

func TestTriggerUnknownEvent(t *testing.T) {
	svc := newService(t, &stubEventsRepo{}, &stubLedger{}, &stubPublisher{})
	_, err := svc.Trigger(context.Background(), uuid.New(), "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestTriggerChildEventRejected(t *testing.T) {
	rootID, childID := uuid.New(), uuid.New()
	event := readyEvent(childID)
	event.ParentEventID = &rootID
	svc := newService(t, &stubEventsRepo{event: event}, &stubLedger{}, &stubPublisher{})

	_, err := svc.Trigger(context.Background(), childID, "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestTriggerMissingTemplate(t *testing.T) {
	rootID := uuid.New()
	event := readyEvent(rootID)
	event.CertificateTemplateURL = nil
	pub := &stubPublisher{}
	svc := newService(t, &stubEventsRepo{event: event}, &stubLedger{}, pub)

	_, err := svc.Trigger(context.Background(), rootID, "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
	if len(pub.published) != 0 {
		t.Fatal("no job may be queued when preconditions fail")
	}
}

func TestTriggerMissingLayout(t *testing.T) {
	rootID := uuid.New()
	event := readyEvent(rootID)
	event.CertificateLayout = nil
	svc := newService(t, &stubEventsRepo{event: event}, &stubLedger{}, &stubPublisher{})

	_, err := svc.Trigger(context.Background(), rootID, "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestTriggerPublishFailure(t *testing.T) {
	rootID := uuid.New()
	svc := newService(t, &stubEventsRepo{event: readyEvent(rootID)}, &stubLedger{}, &stubPublisher{err: errors.New("broker down")})

	_, err := svc.Trigger(context.Background(), rootID, "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

func TestStatusDefaultsToPending(t *testing.T) {
	rootID := uuid.New()
	done, waiting := uuid.New(), uuid.New()
	detail := "mailbox full"
	now := time.Now().UTC()
	repo := &stubEventsRepo{
		event: readyEvent(rootID),
		recipients: []events.Recipient{
			{UserID: done, Email: "done@example.com", FirstName: "Ada", LastName: "Lovelace"},
			{UserID: waiting, Email: "waiting@example.com", FirstName: "Grace"},
		},
	}
	ledger := &stubLedger{
		entries: []models.CertificateLog{
			{UserID: done, EventID: rootID, Status: enums.CertificateStatusFailed, Detail: &detail, UpdatedAt: now},
		},
	}
	svc := newService(t, repo, ledger, &stubPublisher{})

	statuses, err := svc.Status(context.Background(), rootID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(statuses))
	}

	byUser := make(map[uuid.UUID]RecipientStatus)
	for _, row := range statuses {
		byUser[row.UserID] = row
	}
	if byUser[done].Status != enums.CertificateStatusFailed {
		t.Fatalf("expected failed, got %s", byUser[done].Status)
	}
	if byUser[done].Detail == nil || *byUser[done].Detail != detail {
		t.Fatalf("detail not surfaced: %v", byUser[done].Detail)
	}
	if byUser[done].Name != "Ada Lovelace" {
		t.Fatalf("unexpected name %q", byUser[done].Name)
	}
	if byUser[waiting].Status != enums.CertificateStatusPending {
		t.Fatalf("recipients without ledger rows must be pending, got %s", byUser[waiting].Status)
	}
	if byUser[waiting].UpdatedAt != nil {
		t.Fatal("pending rows carry no timestamp")
	}
}

func TestStatusUnknownEvent(t *testing.T) {
	svc := newService(t, &stubEventsRepo{}, &stubLedger{}, &stubPublisher{})
	if _, err := svc.Status(context.Background(), uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
