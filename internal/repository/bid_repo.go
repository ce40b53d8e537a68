package repository

import (
	"context"
	"fmt"

	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/storage"
)

// BidRepository - интерфейс для работы с предложениями, индексом участников и победителями.
type BidRepository interface {
	GetBid(ctx context.Context, r storage.Reader, tenderID uint64, bidder string) (*models.Bid, error)
	GetBids(ctx context.Context, r storage.Reader, tenderID uint64, bidders []string) (map[string]*models.Bid, error)
	PutBid(ctx context.Context, tx storage.Txn, bid *models.Bid) error
	GetBidders(ctx context.Context, r storage.Reader, tenderID uint64) (*models.BidderIndex, error)
	PutBidders(ctx context.Context, tx storage.Txn, idx *models.BidderIndex) error
	GetWinner(ctx context.Context, r storage.Reader, tenderID uint64) (*models.Winner, error)
	PutWinner(ctx context.Context, tx storage.Txn, winner *models.Winner) error
}

// KVBidRepository - реализация BidRepository поверх key-value хранилища.
type KVBidRepository struct{}

// NewKVBidRepository создает новый экземпляр KVBidRepository.
func NewKVBidRepository() *KVBidRepository {
	return &KVBidRepository{}
}

// GetBid возвращает предложение или nil, если его нет.
func (r *KVBidRepository) GetBid(ctx context.Context, rd storage.Reader, tenderID uint64, bidder string) (*models.Bid, error) {
	key := bidKey(tenderID, bidder)
	raw, err := rd.Get(ctx, storage.KindBid, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read bid %s: %w", key, err)
	}
	if raw == nil {
		return nil, nil
	}

	var bid models.Bid
	if err := decode(storage.KindBid, key, raw, &bid); err != nil {
		return nil, err
	}
	return &bid, nil
}

// GetBids читает предложения группы участников одним запросом.
func (r *KVBidRepository) GetBids(ctx context.Context, rd storage.Reader, tenderID uint64, bidders []string) (map[string]*models.Bid, error) {
	keys := make([]string, len(bidders))
	for i, b := range bidders {
		keys[i] = bidKey(tenderID, b)
	}

	raws, err := rd.GetMany(ctx, storage.KindBid, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read bids of tender %d: %w", tenderID, err)
	}

	bids := make(map[string]*models.Bid, len(raws))
	for i, key := range keys {
		raw, ok := raws[key]
		if !ok {
			continue
		}
		var bid models.Bid
		if err := decode(storage.KindBid, key, raw, &bid); err != nil {
			return nil, err
		}
		bids[bidders[i]] = &bid
	}
	return bids, nil
}

// PutBid сохраняет предложение.
func (r *KVBidRepository) PutBid(ctx context.Context, tx storage.Txn, bid *models.Bid) error {
	data, err := encode(storage.KindBid, bid)
	if err != nil {
		return err
	}
	key := bidKey(bid.TenderID, bid.Bidder)
	if err := tx.Set(ctx, storage.KindBid, key, data); err != nil {
		return fmt.Errorf("failed to store bid %s: %w", key, err)
	}
	return nil
}

// GetBidders возвращает индекс участников; для тендера без индекса - пустой индекс.
func (r *KVBidRepository) GetBidders(ctx context.Context, rd storage.Reader, tenderID uint64) (*models.BidderIndex, error) {
	key := tenderKey(tenderID)
	raw, err := rd.Get(ctx, storage.KindBidders, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read bidders of tender %d: %w", tenderID, err)
	}

	idx := &models.BidderIndex{TenderID: tenderID, Bidders: []string{}}
	if raw == nil {
		return idx, nil
	}
	if err := decode(storage.KindBidders, key, raw, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// PutBidders сохраняет индекс участников.
func (r *KVBidRepository) PutBidders(ctx context.Context, tx storage.Txn, idx *models.BidderIndex) error {
	data, err := encode(storage.KindBidders, idx)
	if err != nil {
		return err
	}
	if err := tx.Set(ctx, storage.KindBidders, tenderKey(idx.TenderID), data); err != nil {
		return fmt.Errorf("failed to store bidders of tender %d: %w", idx.TenderID, err)
	}
	return nil
}

// GetWinner возвращает победителя или nil, если его нет.
func (r *KVBidRepository) GetWinner(ctx context.Context, rd storage.Reader, tenderID uint64) (*models.Winner, error) {
	key := tenderKey(tenderID)
	raw, err := rd.Get(ctx, storage.KindWinner, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read winner of tender %d: %w", tenderID, err)
	}
	if raw == nil {
		return nil, nil
	}

	var winner models.Winner
	if err := decode(storage.KindWinner, key, raw, &winner); err != nil {
		return nil, err
	}
	return &winner, nil
}

// PutWinner сохраняет победителя.
func (r *KVBidRepository) PutWinner(ctx context.Context, tx storage.Txn, winner *models.Winner) error {
	data, err := encode(storage.KindWinner, winner)
	if err != nil {
		return err
	}
	if err := tx.Set(ctx, storage.KindWinner, tenderKey(winner.TenderID), data); err != nil {
		return fmt.Errorf("failed to store winner of tender %d: %w", winner.TenderID, err)
	}
	return nil
}
