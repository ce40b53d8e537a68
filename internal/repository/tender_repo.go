package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/storage"
)

// TenderRepository - интерфейс для работы с тендерами.
type TenderRepository interface {
	NextTenderID(ctx context.Context, tx storage.Txn) (uint64, error)
	TenderCount(ctx context.Context, r storage.Reader) (uint64, error)
	GetTender(ctx context.Context, r storage.Reader, id uint64) (*models.Tender, error)
	GetTenders(ctx context.Context, r storage.Reader, ids []uint64) ([]models.Tender, error)
	PutTender(ctx context.Context, tx storage.Txn, tender *models.Tender) error
}

// KVTenderRepository - реализация TenderRepository поверх key-value хранилища.
type KVTenderRepository struct{}

// NewKVTenderRepository создаёт новый экземпляр KVTenderRepository.
func NewKVTenderRepository() *KVTenderRepository {
	return &KVTenderRepository{}
}

// TenderCount возвращает количество созданных тендеров (последний выданный id).
func (r *KVTenderRepository) TenderCount(ctx context.Context, rd storage.Reader) (uint64, error) {
	raw, err := rd.Get(ctx, storage.KindTenderCount, globalKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read tender counter: %w", err)
	}
	if raw == nil {
		return 0, nil
	}
	count, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupted tender counter %q: %w", raw, err)
	}
	return count, nil
}

// NextTenderID увеличивает счетчик и возвращает новое значение. Первый id равен 1.
func (r *KVTenderRepository) NextTenderID(ctx context.Context, tx storage.Txn) (uint64, error) {
	count, err := r.TenderCount(ctx, tx)
	if err != nil {
		return 0, err
	}
	count++
	if err := tx.Set(ctx, storage.KindTenderCount, globalKey, []byte(strconv.FormatUint(count, 10))); err != nil {
		return 0, fmt.Errorf("failed to store tender counter: %w", err)
	}
	return count, nil
}

// GetTender возвращает тендер по id.
func (r *KVTenderRepository) GetTender(ctx context.Context, rd storage.Reader, id uint64) (*models.Tender, error) {
	key := tenderKey(id)
	raw, err := rd.Get(ctx, storage.KindTender, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read tender %d: %w", id, err)
	}
	if raw == nil {
		return nil, models.NewError(models.KindNotFound, "tender %d not found", id)
	}

	var tender models.Tender
	if err := decode(storage.KindTender, key, raw, &tender); err != nil {
		return nil, err
	}
	return &tender, nil
}

// GetTenders возвращает тендеры в порядке ids, пропуская отсутствующие.
func (r *KVTenderRepository) GetTenders(ctx context.Context, rd storage.Reader, ids []uint64) ([]models.Tender, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = tenderKey(id)
	}

	raws, err := rd.GetMany(ctx, storage.KindTender, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenders: %w", err)
	}

	tenders := make([]models.Tender, 0, len(raws))
	for _, key := range keys {
		raw, ok := raws[key]
		if !ok {
			continue
		}
		var tender models.Tender
		if err := decode(storage.KindTender, key, raw, &tender); err != nil {
			return nil, err
		}
		tenders = append(tenders, tender)
	}
	return tenders, nil
}

// PutTender сохраняет тендер.
func (r *KVTenderRepository) PutTender(ctx context.Context, tx storage.Txn, tender *models.Tender) error {
	data, err := encode(storage.KindTender, tender)
	if err != nil {
		return err
	}
	if err := tx.Set(ctx, storage.KindTender, tenderKey(tender.ID), data); err != nil {
		return fmt.Errorf("failed to store tender %d: %w", tender.ID, err)
	}
	return nil
}
