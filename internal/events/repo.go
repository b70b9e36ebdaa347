package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra-app/eventra-backend/pkg/db/models"
	"github.com/eventra-app/eventra-backend/pkg/enums"
)

// Recipient is one eligible certificate recipient resolved from an approved
// enrollment in the root event.
type Recipient struct {
	UserID    uuid.UUID
	Email     string
	FirstName string
	LastName  string
}

// DisplayName returns the name printed on the recipient's certificate.
func (r Recipient) DisplayName() string {
	name := r.FirstName
	if r.LastName != "" {
		if name != "" {
			name += " "
		}
		name += r.LastName
	}
	return name
}

// Repository exposes the read-only event-domain queries the certificate
// pipeline needs. This pipeline never writes to event-management tables.
type Repository interface {
	GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	ListGroupEvents(ctx context.Context, rootEventID uuid.UUID) ([]models.Event, error)
	ListApprovedRecipients(ctx context.Context, rootEventID uuid.UUID) ([]Recipient, error)
	ListUserAttendance(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) ([]models.AttendanceRecord, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an event repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", eventID).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListGroupEvents returns the root event followed by its children, ordered by
// start time for a stable enumeration.
func (r *repositoryImpl) ListGroupEvents(ctx context.Context, rootEventID uuid.UUID) ([]models.Event, error) {
	var group []models.Event
	err := r.db.WithContext(ctx).
		Where("id = ? OR parent_event_id = ?", rootEventID, rootEventID).
		Order("starts_at ASC, id ASC").
		Find(&group).Error
	if err != nil {
		return nil, err
	}
	return group, nil
}

// ListApprovedRecipients resolves the eligible recipient set: users with an
// approved enrollment in the root event. Child-event membership alone does
// not grant eligibility.
func (r *repositoryImpl) ListApprovedRecipients(ctx context.Context, rootEventID uuid.UUID) ([]Recipient, error) {
	var recipients []Recipient
	err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("users.id AS user_id, users.email, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.event_id = ? AND enrollments.status = ?", rootEventID, enums.EnrollmentStatusApproved).
		Order("enrollments.created_at ASC, users.id ASC").
		Scan(&recipients).Error
	if err != nil {
		return nil, err
	}
	return recipients, nil
}

func (r *repositoryImpl) ListUserAttendance(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) ([]models.AttendanceRecord, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id IN ?", userID, eventIDs).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
