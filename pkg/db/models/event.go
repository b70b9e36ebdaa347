package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventra-app/eventra-backend/pkg/types"
)

// Event is one member of a certificate group. A root event has a nil
// ParentEventID and owns the certificate template; child events only
// contribute attendance hours.
type Event struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ParentEventID *uuid.UUID `gorm:"type:uuid;index"`
	Title         string     `gorm:"type:text;not null"`
	StartsAt      time.Time  `gorm:"type:timestamptz;not null"`
	EndsAt        time.Time  `gorm:"type:timestamptz;not null"`

	CertificateTemplateURL *string                  `gorm:"type:text"`
	CertificateLayout      *types.CertificateLayout `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;default:now()"`
}

// IsRoot reports whether the event anchors its certificate group.
func (e Event) IsRoot() bool {
	return e.ParentEventID == nil
}

// HasTemplate reports whether a certificate batch can be triggered for this
// event. Both the template image and the layout must be configured.
func (e Event) HasTemplate() bool {
	return e.CertificateTemplateURL != nil && *e.CertificateTemplateURL != "" && e.CertificateLayout != nil
}

// Duration is the credited length of the event's time window.
func (e Event) Duration() time.Duration {
	return e.EndsAt.Sub(e.StartsAt)
}
