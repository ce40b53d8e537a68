package services

import (
	"log/slog"
	"strconv"

	"github.com/senyabanana/sealed-tender/internal/auth"
	"github.com/senyabanana/sealed-tender/internal/clock"
	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/storage"
)

// Core - общие зависимости сервисов.
type Core struct {
	Store storage.Store
	Clock clock.Clock
	Auth  auth.Authorizer
	Log   *slog.Logger
}

const (
	scopeRegistry = "registry"
	scopeAdmin    = "admin"
)

// tenderScope - scope транзакций, меняющих состояние одного тендера.
func tenderScope(id uint64) string {
	return "tender/" + strconv.FormatUint(id, 10)
}

// Phase вычисляет фазу тендера на момент now.
func Phase(t *models.Tender, now uint64) models.TenderPhase {
	switch {
	case t.IsClosed:
		return models.PhaseClosed
	case now < t.BidDeadline:
		return models.PhaseOpen
	case now < t.RevealDeadline:
		return models.PhaseRevealWindow
	default:
		return models.PhaseCloseable
	}
}
