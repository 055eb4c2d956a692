package services

import (
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// SessionMaintenance runs a daily sweep that prunes refresh-token lists
// above the configured cap. The cap is also enforced at append time; the
// sweep covers rows written before the cap was introduced or lowered.
type SessionMaintenance struct {
	db        *gorm.DB
	registry  *TokenRegistry
	maxTokens int
	scheduler *cron.Cron
}

func NewSessionMaintenance(db *gorm.DB, registry *TokenRegistry, maxTokens int) *SessionMaintenance {
	return &SessionMaintenance{
		db:        db,
		registry:  registry,
		maxTokens: maxTokens,
	}
}

// StartScheduler begins the daily pruning job. No-op when the cap is disabled.
func (m *SessionMaintenance) StartScheduler() {
	if m.maxTokens <= 0 {
		logger.Info().Msg("refresh token cap disabled, session maintenance not started")
		return
	}

	m.scheduler = cron.New()
	if _, err := m.scheduler.AddFunc("@daily", func() {
		pruned, err := m.PruneOversizedRegistries()
		if err != nil {
			logger.Error().Err(err).Msg("session maintenance sweep failed")
			return
		}
		if pruned > 0 {
			logger.Info().Int("users", pruned).Msg("pruned oversized refresh token lists")
		}
	}); err != nil {
		logger.Error().Err(err).Msg("failed to schedule session maintenance")
		return
	}
	m.scheduler.Start()
}

// StopScheduler stops the pruning job.
func (m *SessionMaintenance) StopScheduler() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

// PruneOversizedRegistries trims every user's refresh-token list to the cap,
// keeping the newest entries. Returns the number of users pruned.
func (m *SessionMaintenance) PruneOversizedRegistries() (int, error) {
	var users []models.User
	if err := m.db.Select("id", "refresh_tokens").Find(&users).Error; err != nil {
		return 0, err
	}

	pruned := 0
	for _, user := range users {
		if len(user.RefreshTokens) <= m.maxTokens {
			continue
		}
		if err := m.registry.Trim(user.ID); err != nil {
			logger.Error().Err(err).Uint("user_id", user.ID).Msg("failed to trim refresh token list")
			continue
		}
		pruned++
	}
	return pruned, nil
}
