package auth

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/neurobridge-companion/internal/domain/auth"
	"github.com/yungbote/neurobridge-companion/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

type CredentialRepo interface {
	GetBySlot(dbc dbctx.Context, slot string) (*auth.StoredCredential, error)
	Upsert(dbc dbctx.Context, cred *auth.StoredCredential) error
	DeleteBySlot(dbc dbctx.Context, slot string) error
}

type credentialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCredentialRepo(db *gorm.DB, baseLog *logger.Logger) CredentialRepo {
	repoLog := baseLog.With("repo", "CredentialRepo")
	return &credentialRepo{db: db, log: repoLog}
}

// GetBySlot returns nil and no error when the slot is empty.
func (r *credentialRepo) GetBySlot(dbc dbctx.Context, slot string) (*auth.StoredCredential, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var row auth.StoredCredential
	err := transaction.WithContext(dbc.Ctx).
		Where("slot = ?", normalizeSlot(slot)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *credentialRepo) Upsert(dbc dbctx.Context, cred *auth.StoredCredential) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if cred == nil {
		return nil
	}
	cred.Slot = normalizeSlot(cred.Slot)
	if cred.SavedAt.IsZero() {
		cred.SavedAt = time.Now().UTC()
	}

	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "principal", "saved_at", "updated_at"}),
		}).
		Create(cred).Error
}

func (r *credentialRepo) DeleteBySlot(dbc dbctx.Context, slot string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("slot = ?", normalizeSlot(slot)).
		Delete(&auth.StoredCredential{}).Error
}

func normalizeSlot(slot string) string {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return auth.DefaultSlot
	}
	return slot
}
