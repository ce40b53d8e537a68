package services

import (
	"context"
	"encoding/hex"

	"github.com/senyabanana/sealed-tender/internal/commitment"
	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/repository"
	"github.com/senyabanana/sealed-tender/internal/storage"
)

type BidService struct {
	Repo       repository.BidRepository
	TenderRepo repository.TenderRepository
	Scheme     commitment.Scheme
	MaxBidders int
	core       Core
}

// NewBidService создает новый экземпляр BidService.
func NewBidService(repo repository.BidRepository, tenderRepo repository.TenderRepository, scheme commitment.Scheme, maxBidders int, core Core) *BidService {
	return &BidService{Repo: repo, TenderRepo: tenderRepo, Scheme: scheme, MaxBidders: maxBidders, core: core}
}

// SubmitBid принимает запечатанное предложение.
func (s *BidService) SubmitBid(ctx context.Context, tenderID uint64, bidder string, sealed []byte) (*models.Bid, error) {
	now := s.core.Clock.Now()

	if err := s.core.Auth.Authorize(ctx, bidder); err != nil {
		return nil, err
	}
	if len(sealed) == 0 {
		return nil, models.NewError(models.KindInvalidArgument, "commitment is required")
	}
	if err := s.Scheme.Validate(sealed); err != nil {
		return nil, models.NewError(models.KindInvalidArgument, "%s", err.Error())
	}

	var bid *models.Bid
	err := s.core.Store.Update(ctx, tenderScope(tenderID), func(tx storage.Txn) error {
		tender, err := s.TenderRepo.GetTender(ctx, tx, tenderID)
		if err != nil {
			return err
		}
		if tender.IsClosed {
			return models.NewError(models.KindClosed, "tender %d is closed", tenderID)
		}
		if now >= tender.BidDeadline {
			return models.NewError(models.KindDeadlineExceeded, "bidding for tender %d ended at %d", tenderID, tender.BidDeadline)
		}

		idx, err := s.Repo.GetBidders(ctx, tx, tenderID)
		if err != nil {
			return err
		}
		if idx.Contains(bidder) {
			return models.NewError(models.KindDuplicateBid, "%s already bid on tender %d", bidder, tenderID)
		}
		if s.MaxBidders > 0 && len(idx.Bidders) >= s.MaxBidders {
			return models.NewError(models.KindTenderFull, "tender %d already has %d bidders", tenderID, len(idx.Bidders))
		}

		bid = &models.Bid{
			TenderID:    tenderID,
			Bidder:      bidder,
			Commitment:  append([]byte(nil), sealed...),
			SubmittedAt: now,
		}
		if err := s.Repo.PutBid(ctx, tx, bid); err != nil {
			return err
		}
		idx.Bidders = append(idx.Bidders, bidder)
		return s.Repo.PutBidders(ctx, tx, idx)
	})
	if err != nil {
		return nil, err
	}

	s.core.Log.Info("bid submitted", "tenderId", tenderID, "bidder", bidder)
	return bid, nil
}

// RevealBid раскрывает сумму предложения и проверяет её против обязательства.
func (s *BidService) RevealBid(ctx context.Context, tenderID uint64, bidder string, amount models.Amount, proof []byte) (*models.Bid, error) {
	now := s.core.Clock.Now()

	if err := s.core.Auth.Authorize(ctx, bidder); err != nil {
		return nil, err
	}

	var bid *models.Bid
	err := s.core.Store.Update(ctx, tenderScope(tenderID), func(tx storage.Txn) error {
		tender, err := s.TenderRepo.GetTender(ctx, tx, tenderID)
		if err != nil {
			return err
		}
		bid, err = s.Repo.GetBid(ctx, tx, tenderID, bidder)
		if err != nil {
			return err
		}
		if bid == nil {
			return models.NewError(models.KindNotFound, "%s has no bid on tender %d", bidder, tenderID)
		}

		if now < tender.BidDeadline {
			return models.NewError(models.KindTooEarly, "reveal for tender %d opens at %d", tenderID, tender.BidDeadline)
		}
		if now >= tender.RevealDeadline {
			return models.NewError(models.KindTooLate, "reveal for tender %d ended at %d", tenderID, tender.RevealDeadline)
		}
		if bid.RevealedAmount != nil {
			return models.NewError(models.KindAlreadyRevealed, "bid of %s on tender %d is already revealed", bidder, tenderID)
		}

		binding := commitment.Binding{TenderID: tenderID, Bidder: bidder}
		if err := s.Scheme.Verify(binding, bid.Commitment, amount, proof); err != nil {
			return models.NewError(models.KindProofMismatch, "bid of %s on tender %d: %s", bidder, tenderID, err.Error())
		}
		if amount.Less(tender.MinBid) {
			return models.NewError(models.KindBelowMinimum, "amount %s is below minimum bid %s", amount, tender.MinBid)
		}

		revealed := amount
		bid.RevealedAmount = &revealed
		bid.IsValid = true
		return s.Repo.PutBid(ctx, tx, bid)
	})
	if err != nil {
		return nil, err
	}

	s.core.Log.Info("bid revealed", "tenderId", tenderID, "bidder", bidder)
	return bid, nil
}

// SealBid строит обязательство активной схемы для клиента без локальной криптографии.
func (s *BidService) SealBid(_ context.Context, req models.SealRequest) (*models.SealResponse, error) {
	if req.Bidder == "" {
		return nil, models.NewError(models.KindInvalidArgument, "bidder is required")
	}

	binding := commitment.Binding{TenderID: req.TenderID, Bidder: req.Bidder}
	sealed, err := s.Scheme.Commit(binding, req.Amount, []byte(req.Secret))
	if err != nil {
		return nil, models.NewError(models.KindInvalidArgument, "%s", err.Error())
	}
	return &models.SealResponse{Scheme: s.Scheme.Name(), Commitment: hex.EncodeToString(sealed)}, nil
}

// GetBid возвращает публичное представление предложения.
func (s *BidService) GetBid(ctx context.Context, tenderID uint64, bidder string) (*models.BidView, error) {
	var bid *models.Bid
	err := s.core.Store.View(ctx, func(r storage.Reader) error {
		if _, err := s.TenderRepo.GetTender(ctx, r, tenderID); err != nil {
			return err
		}
		var err error
		bid, err = s.Repo.GetBid(ctx, r, tenderID, bidder)
		return err
	})
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, models.NewError(models.KindNotFound, "%s has no bid on tender %d", bidder, tenderID)
	}

	view := bid.View()
	return &view, nil
}
