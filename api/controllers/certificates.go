package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eventra-app/eventra-backend/api/responses"
	"github.com/eventra-app/eventra-backend/api/validators"
	"github.com/eventra-app/eventra-backend/internal/certificates"
	pkgerrors "github.com/eventra-app/eventra-backend/pkg/errors"
	"github.com/eventra-app/eventra-backend/pkg/logger"
)

type triggerCertificatesRequest struct {
	NotifyAddress string `json:"notifyAddress" validate:"omitempty,email"`
}

// TriggerCertificates queues a certificate batch for the event group rooted
// at the path event. The response returns as soon as the job is durably
// queued; delivery happens in the worker.
func TriggerCertificates(svc certificates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid event id"))
			return
		}

		var req triggerCertificatesRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		result, err := svc.Trigger(ctx, eventID, req.NotifyAddress)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, result)
	}
}

// CertificateStatus reports per-recipient issuance state for the event group.
func CertificateStatus(svc certificates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid event id"))
			return
		}

		statuses, err := svc.Status(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"recipients": statuses})
	}
}
