package services

import (
	"context"

	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/repository"
	"github.com/senyabanana/sealed-tender/internal/storage"
)

type TenderService struct {
	Repo    repository.TenderRepository
	BidRepo repository.BidRepository
	core    Core
}

// NewTenderService создаёт новый экземпляр TenderService.
func NewTenderService(repo repository.TenderRepository, bidRepo repository.BidRepository, core Core) *TenderService {
	return &TenderService{Repo: repo, BidRepo: bidRepo, core: core}
}

// CreateTender создает новый тендер.
func (s *TenderService) CreateTender(ctx context.Context, req models.TenderRequest) (*models.Tender, error) {
	now := s.core.Clock.Now()

	if req.Creator == "" {
		return nil, models.NewError(models.KindInvalidArgument, "creator is required")
	}
	if err := s.core.Auth.Authorize(ctx, req.Creator); err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, models.NewError(models.KindInvalidArgument, "title is required")
	}
	if req.BidDeadline <= now {
		return nil, models.NewError(models.KindInvalidSchedule, "bid deadline %d must be in the future (now %d)", req.BidDeadline, now)
	}
	if req.RevealDeadline <= req.BidDeadline {
		return nil, models.NewError(models.KindInvalidSchedule, "reveal deadline %d must be after bid deadline %d", req.RevealDeadline, req.BidDeadline)
	}

	var tender *models.Tender
	err := s.core.Store.Update(ctx, scopeRegistry, func(tx storage.Txn) error {
		id, err := s.Repo.NextTenderID(ctx, tx)
		if err != nil {
			return err
		}

		tender = &models.Tender{
			ID:             id,
			Creator:        req.Creator,
			Title:          req.Title,
			Description:    req.Description,
			ContentRef:     req.ContentRef,
			BidDeadline:    req.BidDeadline,
			RevealDeadline: req.RevealDeadline,
			MinBid:         req.MinBid,
			CreatedAt:      now,
		}
		if err := s.Repo.PutTender(ctx, tx, tender); err != nil {
			return err
		}
		return s.BidRepo.PutBidders(ctx, tx, &models.BidderIndex{TenderID: id, Bidders: []string{}})
	})
	if err != nil {
		return nil, err
	}

	s.core.Log.Info("tender created", "tenderId", tender.ID, "creator", tender.Creator,
		"bidDeadline", tender.BidDeadline, "revealDeadline", tender.RevealDeadline)
	return tender, nil
}

// GetTender получает тендер вместе с текущей фазой.
func (s *TenderService) GetTender(ctx context.Context, id uint64) (*models.TenderView, error) {
	now := s.core.Clock.Now()

	var tender *models.Tender
	err := s.core.Store.View(ctx, func(r storage.Reader) error {
		var err error
		tender, err = s.Repo.GetTender(ctx, r, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &models.TenderView{Tender: *tender, Phase: Phase(tender, now)}, nil
}

// FetchTenders получает страницу тендеров по возрастанию id и общее их количество.
func (s *TenderService) FetchTenders(ctx context.Context, limit, offset int) ([]models.TenderView, uint64, error) {
	now := s.core.Clock.Now()

	var (
		tenders []models.Tender
		total   uint64
	)
	err := s.core.Store.View(ctx, func(r storage.Reader) error {
		var err error
		total, err = s.Repo.TenderCount(ctx, r)
		if err != nil {
			return err
		}

		var ids []uint64
		for id := uint64(offset) + 1; id <= total && len(ids) < limit; id++ {
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return nil
		}
		tenders, err = s.Repo.GetTenders(ctx, r, ids)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	views := make([]models.TenderView, 0, len(tenders))
	for i := range tenders {
		views = append(views, models.TenderView{Tender: tenders[i], Phase: Phase(&tenders[i], now)})
	}
	return views, total, nil
}

// TenderCount возвращает количество созданных тендеров.
func (s *TenderService) TenderCount(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.core.Store.View(ctx, func(r storage.Reader) error {
		var err error
		count, err = s.Repo.TenderCount(ctx, r)
		return err
	})
	return count, err
}

// GetBidders возвращает участников тендера в порядке подачи.
func (s *TenderService) GetBidders(ctx context.Context, id uint64) ([]string, error) {
	var bidders []string
	err := s.core.Store.View(ctx, func(r storage.Reader) error {
		if _, err := s.Repo.GetTender(ctx, r, id); err != nil {
			return err
		}
		idx, err := s.BidRepo.GetBidders(ctx, r, id)
		if err != nil {
			return err
		}
		bidders = idx.Bidders
		return nil
	})
	return bidders, err
}

// GetWinner возвращает победителя закрытого тендера.
func (s *TenderService) GetWinner(ctx context.Context, id uint64) (*models.Winner, error) {
	var winner *models.Winner
	err := s.core.Store.View(ctx, func(r storage.Reader) error {
		if _, err := s.Repo.GetTender(ctx, r, id); err != nil {
			return err
		}
		var err error
		winner, err = s.BidRepo.GetWinner(ctx, r, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, models.NewError(models.KindNotFound, "tender %d has no winner", id)
	}
	return winner, nil
}
