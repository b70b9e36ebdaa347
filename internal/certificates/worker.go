package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra-app/eventra-backend/internal/attendance"
	"github.com/eventra-app/eventra-backend/internal/certificates/render"
	"github.com/eventra-app/eventra-backend/internal/events"
	"github.com/eventra-app/eventra-backend/pkg/db/models"
	"github.com/eventra-app/eventra-backend/pkg/enums"
	pkgerrors "github.com/eventra-app/eventra-backend/pkg/errors"
	"github.com/eventra-app/eventra-backend/pkg/logger"
	"github.com/eventra-app/eventra-backend/pkg/mail"
	"github.com/eventra-app/eventra-backend/pkg/metrics"
	"github.com/eventra-app/eventra-backend/pkg/types"
)

type templateFetcher interface {
	Fetch(ctx context.Context, reference string) ([]byte, error)
}

type certificateRenderer interface {
	Render(template []byte, layout types.CertificateLayout, fields render.Fields) ([]byte, error)
}

type mailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// BatchSummary reports what one batch run did.
type BatchSummary struct {
	RootEventID uuid.UUID
	Recipients  int
	Issued      int
	Failed      int
	Skipped     int
}

// Worker executes one certificate batch per queue job. Failures are isolated
// per recipient: a bad address or missing attendance never aborts the rest of
// the batch.
type Worker struct {
	events     events.Repository
	ledger     LedgerRepository
	attendance attendance.Service
	templates  templateFetcher
	renderer   certificateRenderer
	mailer     mailSender
	metrics    *metrics.BatchMetrics
	logg       *logger.Logger

	// dispatchInterval paces outbound email between recipients.
	dispatchInterval time.Duration
}

// NewWorker builds the batch worker. Metrics may be nil.
func NewWorker(
	eventsRepo events.Repository,
	ledger LedgerRepository,
	attendanceSvc attendance.Service,
	templates templateFetcher,
	renderer certificateRenderer,
	mailer mailSender,
	batchMetrics *metrics.BatchMetrics,
	logg *logger.Logger,
	dispatchInterval time.Duration,
) (*Worker, error) {
	if eventsRepo == nil {
		return nil, fmt.Errorf("events repository is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger repository is required")
	}
	if attendanceSvc == nil {
		return nil, fmt.Errorf("attendance service is required")
	}
	if templates == nil {
		return nil, fmt.Errorf("template fetcher is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Worker{
		events:           eventsRepo,
		ledger:           ledger,
		attendance:       attendanceSvc,
		templates:        templates,
		renderer:         renderer,
		mailer:           mailer,
		metrics:          batchMetrics,
		logg:             logg,
		dispatchInterval: dispatchInterval,
	}, nil
}

// RunBatch processes every eligible recipient of the root event. Recipients
// whose ledger row already reads success are skipped, which makes a re-run of
// the same job resume where the previous one stopped.
func (w *Worker) RunBatch(ctx context.Context, payload SendCertificatesPayload) (*BatchSummary, error) {
	started := time.Now()
	logCtx := w.logg.WithEventID(ctx, payload.RootEventID.String())

	event, err := w.events.GetEvent(ctx, payload.RootEventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading event")
	}
	if !event.HasTemplate() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event is not configured for certificates")
	}

	template, err := w.templates.Fetch(ctx, *event.CertificateTemplateURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching certificate template")
	}

	recipients, err := w.events.ListApprovedRecipients(ctx, payload.RootEventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing recipients")
	}

	summary := &BatchSummary{RootEventID: payload.RootEventID, Recipients: len(recipients)}
	label := payload.RootEventID.String()

	for _, recipient := range recipients {
		recipientCtx := w.logg.WithUserID(logCtx, recipient.UserID.String())

		done, err := w.alreadyIssued(ctx, recipient.UserID, payload.RootEventID)
		if err != nil {
			w.markFailed(ctx, recipientCtx, recipient.UserID, payload.RootEventID, err)
			summary.Failed++
			w.metrics.IncFailed(label)
			w.pace(ctx)
			continue
		}
		if done {
			summary.Skipped++
			w.metrics.IncSkipped(label)
			w.logg.Info(recipientCtx, "certificate already issued, skipping")
			continue
		}

		if err := w.issueOne(ctx, event, template, recipient); err != nil {
			w.markFailed(ctx, recipientCtx, recipient.UserID, payload.RootEventID, err)
			summary.Failed++
			w.metrics.IncFailed(label)
		} else {
			summary.Issued++
			w.metrics.IncIssued(label)
			w.logg.Info(recipientCtx, "certificate issued")
		}
		w.pace(ctx)
	}

	w.metrics.ObserveDuration(label, time.Since(started))
	w.notifyCompletion(ctx, logCtx, event, payload.NotifyAddress, summary)

	w.logg.Info(w.logg.WithFields(logCtx, map[string]any{
		"recipients": summary.Recipients,
		"issued":     summary.Issued,
		"failed":     summary.Failed,
		"skipped":    summary.Skipped,
	}), "certificate batch finished")

	return summary, nil
}

func (w *Worker) alreadyIssued(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	entry, err := w.ledger.Get(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("reading ledger: %w", err)
	}
	return entry.Status == enums.CertificateStatusSuccess, nil
}

func (w *Worker) issueOne(ctx context.Context, event *models.Event, template []byte, recipient events.Recipient) error {
	hours, err := w.attendance.ComputeHours(ctx, recipient.UserID, event.ID)
	if err != nil {
		return err
	}

	pdf, err := w.renderer.Render(template, *event.CertificateLayout, render.Fields{
		Name:  recipient.DisplayName(),
		Hours: attendance.FormatHours(hours),
	})
	if err != nil {
		return err
	}

	msg := mail.Message{
		To:      recipient.Email,
		ToName:  recipient.DisplayName(),
		Subject: fmt.Sprintf("Your certificate for %s", event.Title),
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Thank you for attending <strong>%s</strong>. Your certificate for %s credited hours is attached.</p>",
			recipient.DisplayName(), event.Title, attendance.FormatHours(hours),
		),
		Attachment: &mail.Attachment{
			Filename: attachmentFilename(recipient.DisplayName()),
			Bytes:    pdf,
			MIMEType: "application/pdf",
		},
	}
	if err := w.mailer.Send(ctx, msg); err != nil {
		return err
	}

	if err := w.ledger.Upsert(ctx, recipient.UserID, event.ID, enums.CertificateStatusSuccess, nil); err != nil {
		// The email is already out; surface the bookkeeping failure loudly
		// but do not fail the recipient.
		w.logg.Error(ctx, "ledger write failed after dispatch", err)
	}
	return nil
}

// attachmentFilename derives a stable filename from the recipient's display
// name, e.g. "ada-lovelace-certificate.pdf".
func attachmentFilename(displayName string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(displayName) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "certificate.pdf"
	}
	return slug + "-certificate.pdf"
}

func (w *Worker) markFailed(ctx context.Context, logCtx context.Context, userID, eventID uuid.UUID, cause error) {
	w.logg.Error(logCtx, "certificate attempt failed", cause)
	detail := cause.Error()
	if err := w.ledger.Upsert(ctx, userID, eventID, enums.CertificateStatusFailed, &detail); err != nil {
		w.logg.Error(logCtx, "ledger write failed", err)
	}
}

func (w *Worker) notifyCompletion(ctx context.Context, logCtx context.Context, event *models.Event, address string, summary *BatchSummary) {
	if address == "" {
		return
	}
	msg := mail.Message{
		To:      address,
		Subject: fmt.Sprintf("Certificate batch finished for %s", event.Title),
		HTML: fmt.Sprintf(
			"<p>The certificate batch for <strong>%s</strong> finished.</p><ul><li>Issued: %d</li><li>Failed: %d</li><li>Skipped: %d</li></ul>",
			event.Title, summary.Issued, summary.Failed, summary.Skipped,
		),
	}
	if err := w.mailer.Send(ctx, msg); err != nil {
		w.logg.Error(logCtx, "completion notice failed", err)
	}
}

// pace sleeps the dispatch interval, returning early on cancellation.
func (w *Worker) pace(ctx context.Context) {
	if w.dispatchInterval <= 0 {
		return
	}
	timer := time.NewTimer(w.dispatchInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
