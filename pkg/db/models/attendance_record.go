package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceRecord is one check-in action. The same (user, event) pair may
// hold multiple rows; hour aggregation credits the event once.
type AttendanceRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID     uuid.UUID `gorm:"type:uuid;not null;index:attendance_event_user_idx"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:attendance_event_user_idx"`
	CheckedInAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}
