package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/repository"
	"github.com/senyabanana/sealed-tender/internal/storage"
)

// AccessService хранит однократно назначаемого администратора.
type AccessService struct {
	Repo repository.AdminRepository
	core Core
}

func NewAccessService(repo repository.AdminRepository, core Core) *AccessService {
	return &AccessService{Repo: repo, core: core}
}

// Initialize назначает администратора. Повторный вызов возвращает AlreadyInitialized.
func (s *AccessService) Initialize(ctx context.Context, admin string) error {
	if admin == "" {
		return models.NewError(models.KindInvalidArgument, "admin identity is required")
	}

	err := s.core.Store.Update(ctx, scopeAdmin, func(tx storage.Txn) error {
		current, err := s.Repo.GetAdmin(ctx, tx)
		if err != nil {
			return err
		}
		if current != "" {
			return models.NewError(models.KindAlreadyInitialized, "admin is already set")
		}
		return s.Repo.PutAdmin(ctx, tx, admin)
	})
	if err != nil {
		return err
	}

	s.core.Log.Info("admin initialized", "admin", admin)
	return nil
}

// Admin возвращает администратора или пустую строку.
func (s *AccessService) Admin(ctx context.Context) (string, error) {
	var admin string
	err := s.core.Store.View(ctx, func(r storage.Reader) error {
		var err error
		admin, err = s.Repo.GetAdmin(ctx, r)
		return err
	})
	return admin, err
}

// EnsureAdmin назначает admin при первом запуске и проверяет его при последующих.
// Возвращает действующего администратора.
func (s *AccessService) EnsureAdmin(ctx context.Context, admin string) (string, error) {
	if admin != "" {
		err := s.Initialize(ctx, admin)
		if err != nil && !errors.Is(err, models.ErrAlreadyInitialized) {
			return "", err
		}
	}

	current, err := s.Admin(ctx)
	if err != nil {
		return "", err
	}
	if admin != "" && current != admin {
		return "", fmt.Errorf("configured admin %q does not match stored admin %q", admin, current)
	}
	return current, nil
}

// CloseService закрывает тендеры и фиксирует победителя.
type CloseService struct {
	TenderRepo repository.TenderRepository
	BidRepo    repository.BidRepository
	Selector   *WinnerSelector
	admin      string
	core       Core
}

// NewCloseService создает сервис закрытия. admin - результат AccessService.EnsureAdmin.
func NewCloseService(tenderRepo repository.TenderRepository, bidRepo repository.BidRepository, selector *WinnerSelector, admin string, core Core) *CloseService {
	return &CloseService{TenderRepo: tenderRepo, BidRepo: bidRepo, Selector: selector, admin: admin, core: core}
}

// CloseTender закрывает тендер. Возвращает победителя или nil, если раскрытых предложений нет.
func (s *CloseService) CloseTender(ctx context.Context, tenderID uint64, caller string) (*models.Winner, error) {
	now := s.core.Clock.Now()

	if err := s.core.Auth.Authorize(ctx, caller); err != nil {
		return nil, err
	}

	var winner *models.Winner
	err := s.core.Store.Update(ctx, tenderScope(tenderID), func(tx storage.Txn) error {
		tender, err := s.TenderRepo.GetTender(ctx, tx, tenderID)
		if err != nil {
			return err
		}
		if now < tender.RevealDeadline {
			return models.NewError(models.KindTooEarly, "tender %d can be closed after %d", tenderID, tender.RevealDeadline)
		}
		if tender.IsClosed {
			return models.NewError(models.KindAlreadyClosed, "tender %d is already closed", tenderID)
		}
		if caller != tender.Creator && (s.admin == "" || caller != s.admin) {
			return models.NewError(models.KindUnauthorized, "%s may not close tender %d", caller, tenderID)
		}

		winner, err = s.Selector.Select(ctx, tx, tenderID)
		if err != nil {
			return err
		}
		if winner != nil {
			existing, err := s.BidRepo.GetWinner(ctx, tx, tenderID)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("tender %d is open but already has winner %s", tenderID, existing.Bidder)
			}
			winner.SelectedAt = now
			if err := s.BidRepo.PutWinner(ctx, tx, winner); err != nil {
				return err
			}
		}

		tender.IsClosed = true
		return s.TenderRepo.PutTender(ctx, tx, tender)
	})
	if err != nil {
		return nil, err
	}

	if winner != nil {
		s.core.Log.Info("tender closed", "tenderId", tenderID, "winner", winner.Bidder, "amount", winner.Amount.String())
	} else {
		s.core.Log.Info("tender closed without winner", "tenderId", tenderID)
	}
	return winner, nil
}
