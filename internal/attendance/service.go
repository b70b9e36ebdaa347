package attendance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/eventra-app/eventra-backend/pkg/db/models"
	pkgerrors "github.com/eventra-app/eventra-backend/pkg/errors"
)

type groupReader interface {
	ListGroupEvents(ctx context.Context, rootEventID uuid.UUID) ([]models.Event, error)
	ListUserAttendance(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) ([]models.AttendanceRecord, error)
}

// Service computes credited attendance hours over a certificate group.
type Service interface {
	ComputeHours(ctx context.Context, userID, rootEventID uuid.UUID) (int, error)
}

type serviceImpl struct {
	repo groupReader
}

// NewService builds the attendance aggregator.
func NewService(repo groupReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("events repository is required")
	}
	return &serviceImpl{repo: repo}, nil
}

// ComputeHours sums the time windows of the group's events the user attended.
// An event is credited once no matter how many check-ins it holds. The total
// is rounded to the nearest whole hour; a recipient with no credited time
// fails with a NO_ATTENDANCE error rather than producing a zero-hour
// certificate.
func (s *serviceImpl) ComputeHours(ctx context.Context, userID, rootEventID uuid.UUID) (int, error) {
	group, err := s.repo.ListGroupEvents(ctx, rootEventID)
	if err != nil {
		return 0, fmt.Errorf("loading event group: %w", err)
	}
	if len(group) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "event group not found")
	}

	eventIDs := make([]uuid.UUID, 0, len(group))
	for _, event := range group {
		eventIDs = append(eventIDs, event.ID)
	}

	records, err := s.repo.ListUserAttendance(ctx, userID, eventIDs)
	if err != nil {
		return 0, fmt.Errorf("loading attendance records: %w", err)
	}

	attended := make(map[uuid.UUID]struct{}, len(records))
	for _, record := range records {
		attended[record.EventID] = struct{}{}
	}

	var total time.Duration
	for _, event := range group {
		if _, ok := attended[event.ID]; ok {
			total += event.Duration()
		}
	}

	if len(attended) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNoAttendance, "no distinct events attended")
	}

	hours := int(math.Round(total.Hours()))
	if hours <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNoAttendance, "attended time rounds to zero hours")
	}
	return hours, nil
}

// FormatHours renders the hour total the way certificates display it.
func FormatHours(hours int) string {
	return fmt.Sprintf("%02d", hours)
}
