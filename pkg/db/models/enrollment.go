package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventra-app/eventra-backend/pkg/enums"
)

// Enrollment links a user to a root event. Only approved enrollments in the
// root event make a user eligible for the group's certificate.
type Enrollment struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID   uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:enrollments_event_user_key"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:enrollments_event_user_key"`
	Status    enums.EnrollmentStatus `gorm:"type:enrollment_status;not null;default:'pending'"`
	CreatedAt time.Time              `gorm:"type:timestamptz;default:now()"`
}
