package services

import (
	"context"
	"fmt"

	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/repository"
	"github.com/senyabanana/sealed-tender/internal/storage"
)

const defaultPageSize = 64

// WinnerSelector выбирает минимальное раскрытое предложение.
type WinnerSelector struct {
	Repo     repository.BidRepository
	PageSize int
}

func NewWinnerSelector(repo repository.BidRepository, pageSize int) *WinnerSelector {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &WinnerSelector{Repo: repo, PageSize: pageSize}
}

// Select обходит участников в порядке подачи страницами по PageSize.
// Лучший кандидат заменяется только строго меньшей суммой, поэтому при
// равенстве побеждает тот, кто подал предложение раньше. Возвращает nil,
// если ни одно предложение не раскрыто.
func (s *WinnerSelector) Select(ctx context.Context, r storage.Reader, tenderID uint64) (*models.Winner, error) {
	idx, err := s.Repo.GetBidders(ctx, r, tenderID)
	if err != nil {
		return nil, err
	}

	var best *models.Winner
	for start := 0; start < len(idx.Bidders); start += s.PageSize {
		end := min(start+s.PageSize, len(idx.Bidders))
		page := idx.Bidders[start:end]

		bids, err := s.Repo.GetBids(ctx, r, tenderID, page)
		if err != nil {
			return nil, err
		}

		for _, bidder := range page {
			bid, ok := bids[bidder]
			if !ok {
				return nil, fmt.Errorf("bidder %s of tender %d has no bid record", bidder, tenderID)
			}
			if !bid.IsValid || bid.RevealedAmount == nil {
				continue
			}
			if best == nil || bid.RevealedAmount.Less(best.Amount) {
				best = &models.Winner{TenderID: tenderID, Bidder: bidder, Amount: *bid.RevealedAmount}
			}
		}
	}
	return best, nil
}
