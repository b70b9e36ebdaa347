package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventra-app/eventra-backend/pkg/enums"
)

// CertificateLog is the durable per-(user, root event) issuance record. The
// unique key makes batch re-runs upsert instead of duplicating, which is what
// lets a re-run skip recipients that already succeeded.
type CertificateLog struct {
	ID        uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:certificate_logs_user_event_key"`
	EventID   uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:certificate_logs_user_event_key"`
	Status    enums.CertificateStatus `gorm:"type:certificate_status;not null"`
	Detail    *string                 `gorm:"type:text"`
	CreatedAt time.Time               `gorm:"type:timestamptz;default:now()"`
	UpdatedAt time.Time               `gorm:"type:timestamptz;default:now()"`
}
