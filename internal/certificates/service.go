package certificates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra-app/eventra-backend/internal/events"
	"github.com/eventra-app/eventra-backend/pkg/db/models"
	"github.com/eventra-app/eventra-backend/pkg/enums"
	pkgerrors "github.com/eventra-app/eventra-backend/pkg/errors"
	"github.com/eventra-app/eventra-backend/pkg/logger"
)

// TriggerResult is returned to the caller once a batch job is queued.
type TriggerResult struct {
	RootEventID uuid.UUID `json:"rootEventId"`
	Recipients  int       `json:"recipients"`
	QueuedAt    time.Time `json:"queuedAt"`
}

// RecipientStatus is one row of the per-event issuance report. Recipients
// without a ledger entry report as pending.
type RecipientStatus struct {
	UserID    uuid.UUID               `json:"userId"`
	Email     string                  `json:"email"`
	Name      string                  `json:"name"`
	Status    enums.CertificateStatus `json:"status"`
	Detail    *string                 `json:"detail,omitempty"`
	UpdatedAt *time.Time              `json:"updatedAt,omitempty"`
}

// Service queues certificate batches and reports issuance status.
type Service interface {
	Trigger(ctx context.Context, rootEventID uuid.UUID, notifyAddress string) (*TriggerResult, error)
	Status(ctx context.Context, rootEventID uuid.UUID) ([]RecipientStatus, error)
}

type serviceImpl struct {
	events    events.Repository
	ledger    LedgerRepository
	publisher JobPublisher
	logg      *logger.Logger
}

// NewService builds the certificate service.
func NewService(eventsRepo events.Repository, ledger LedgerRepository, publisher JobPublisher, logg *logger.Logger) (Service, error) {
	if eventsRepo == nil {
		return nil, fmt.Errorf("events repository is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("job publisher is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &serviceImpl{events: eventsRepo, ledger: ledger, publisher: publisher, logg: logg}, nil
}

// Trigger validates the event is a certificate-ready root, then enqueues the
// batch job. The heavy work happens in the worker; this call returns as soon
// as the job is durably queued.
func (s *serviceImpl) Trigger(ctx context.Context, rootEventID uuid.UUID, notifyAddress string) (*TriggerResult, error) {
	event, err := s.loadRootEvent(ctx, rootEventID)
	if err != nil {
		return nil, err
	}
	if event.CertificateTemplateURL == nil || *event.CertificateTemplateURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event has no certificate template configured")
	}
	if event.CertificateLayout == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event has no certificate layout configured")
	}
	if err := event.CertificateLayout.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "event certificate layout is invalid")
	}

	recipients, err := s.events.ListApprovedRecipients(ctx, rootEventID)
	if err != nil {
		return nil, fmt.Errorf("listing recipients: %w", err)
	}

	data, attrs, err := NewJobMessage(SendCertificatesPayload{
		RootEventID:   rootEventID,
		NotifyAddress: notifyAddress,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building certificate job")
	}
	if err := s.publisher.Publish(ctx, data, attrs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queueing certificate job")
	}

	logCtx := s.logg.WithEventID(ctx, rootEventID.String())
	s.logg.Info(logCtx, "certificate batch queued")

	return &TriggerResult{
		RootEventID: rootEventID,
		Recipients:  len(recipients),
		QueuedAt:    time.Now().UTC(),
	}, nil
}

// Status merges the eligible recipient list with the ledger. Eligibility is
// resolved live, so a recipient approved after the last batch shows up as
// pending.
func (s *serviceImpl) Status(ctx context.Context, rootEventID uuid.UUID) ([]RecipientStatus, error) {
	if _, err := s.loadRootEvent(ctx, rootEventID); err != nil {
		return nil, err
	}

	recipients, err := s.events.ListApprovedRecipients(ctx, rootEventID)
	if err != nil {
		return nil, fmt.Errorf("listing recipients: %w", err)
	}
	entries, err := s.ledger.ListForEvent(ctx, rootEventID)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}

	byUser := make(map[uuid.UUID]models.CertificateLog, len(entries))
	for _, entry := range entries {
		byUser[entry.UserID] = entry
	}

	statuses := make([]RecipientStatus, 0, len(recipients))
	for _, recipient := range recipients {
		row := RecipientStatus{
			UserID: recipient.UserID,
			Email:  recipient.Email,
			Name:   recipient.DisplayName(),
			Status: enums.CertificateStatusPending,
		}
		if entry, ok := byUser[recipient.UserID]; ok {
			row.Status = entry.Status
			row.Detail = entry.Detail
			updatedAt := entry.UpdatedAt
			row.UpdatedAt = &updatedAt
		}
		statuses = append(statuses, row)
	}
	return statuses, nil
}

func (s *serviceImpl) loadRootEvent(ctx context.Context, rootEventID uuid.UUID) (*models.Event, error) {
	event, err := s.events.GetEvent(ctx, rootEventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, fmt.Errorf("loading event: %w", err)
	}
	if !event.IsRoot() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "certificates are issued from the root event of a group")
	}
	return event, nil
}
