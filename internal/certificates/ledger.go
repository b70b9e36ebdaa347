package certificates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventra-app/eventra-backend/pkg/db/models"
	"github.com/eventra-app/eventra-backend/pkg/enums"
)

// LedgerRepository is the durable per-(user, root event) issuance record.
// The pipeline owns this table exclusively; the upsert keyed on
// (user_id, event_id) is what makes batch re-runs idempotent.
type LedgerRepository interface {
	Upsert(ctx context.Context, userID, eventID uuid.UUID, status enums.CertificateStatus, detail *string) error
	Get(ctx context.Context, userID, eventID uuid.UUID) (*models.CertificateLog, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.CertificateLog, error)
}

type ledgerRepositoryImpl struct {
	db *gorm.DB
}

// NewLedgerRepository returns a ledger repository bound to the provided database.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepositoryImpl{db: db}
}

func (r *ledgerRepositoryImpl) Upsert(ctx context.Context, userID, eventID uuid.UUID, status enums.CertificateStatus, detail *string) error {
	now := time.Now().UTC()
	entry := models.CertificateLog{
		ID:        uuid.New(),
		UserID:    userID,
		EventID:   eventID,
		Status:    status,
		Detail:    detail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "detail", "updated_at",
			}),
		}).
		Create(&entry).Error
}

func (r *ledgerRepositoryImpl) Get(ctx context.Context, userID, eventID uuid.UUID) (*models.CertificateLog, error) {
	var entry models.CertificateLog
	err := r.db.WithContext(ctx).
		First(&entry, "user_id = ? AND event_id = ?", userID, eventID).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepositoryImpl) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.CertificateLog, error) {
	var entries []models.CertificateLog
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("updated_at DESC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
