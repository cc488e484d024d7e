package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/neurobridge-companion/internal/data/db"
	authrepo "github.com/yungbote/neurobridge-companion/internal/data/repos/auth"
	"github.com/yungbote/neurobridge-companion/internal/domain/auth"
	"github.com/yungbote/neurobridge-companion/internal/domain/user"
	"github.com/yungbote/neurobridge-companion/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

type sqlStore struct {
	svc  *db.Service
	repo authrepo.CredentialRepo
	slot string
	log  *logger.Logger
}

func openSQL(log *logger.Logger, cfg Config) (Store, error) {
	svc, err := db.Open(log, db.Config{Driver: cfg.Driver, DSN: cfg.DSN})
	if err != nil {
		return nil, err
	}
	if err := svc.AutoMigrateAll(); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("credential store automigrate: %w", err)
	}
	slot := strings.TrimSpace(cfg.Key)
	if slot == "" {
		slot = auth.DefaultSlot
	}
	return &sqlStore{
		svc:  svc,
		repo: authrepo.NewCredentialRepo(svc.DB(), log),
		slot: slot,
		log:  log.With("store", "sql", "driver", svc.Driver()),
	}, nil
}

func (s *sqlStore) Load(ctx context.Context) (Credential, bool, error) {
	row, err := s.repo.GetBySlot(dbctx.Context{Ctx: ctx}, s.slot)
	if err != nil {
		return Credential{}, false, fmt.Errorf("load credential: %w", err)
	}
	if row == nil || strings.TrimSpace(row.AccessToken) == "" {
		return Credential{}, false, nil
	}
	cred := Credential{Token: row.AccessToken, SavedAt: row.SavedAt}
	if len(row.Principal) > 0 {
		var p user.Principal
		if err := json.Unmarshal(row.Principal, &p); err != nil {
			s.log.Warn("cached principal unreadable (ignoring)", "error", err)
		} else {
			cred.Principal = p
		}
	}
	return cred, true, nil
}

func (s *sqlStore) Save(ctx context.Context, cred Credential) error {
	var principal datatypes.JSON
	if !cred.Principal.IsZero() {
		raw, err := json.Marshal(cred.Principal)
		if err != nil {
			return fmt.Errorf("encode principal: %w", err)
		}
		principal = datatypes.JSON(raw)
	}
	savedAt := cred.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	return s.repo.Upsert(dbctx.Context{Ctx: ctx}, &auth.StoredCredential{
		Slot:        s.slot,
		AccessToken: cred.Token,
		Principal:   principal,
		SavedAt:     savedAt,
	})
}

func (s *sqlStore) Clear(ctx context.Context) error {
	return s.repo.DeleteBySlot(dbctx.Context{Ctx: ctx}, s.slot)
}

func (s *sqlStore) Close() error { return s.svc.Close() }
