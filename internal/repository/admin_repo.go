package repository

import (
	"context"
	"fmt"

	"github.com/senyabanana/sealed-tender/internal/storage"
)

// AdminRepository хранит идентификатор администратора.
type AdminRepository interface {
	GetAdmin(ctx context.Context, r storage.Reader) (string, error)
	PutAdmin(ctx context.Context, tx storage.Txn, admin string) error
}

// KVAdminRepository - реализация AdminRepository поверх key-value хранилища.
type KVAdminRepository struct{}

func NewKVAdminRepository() *KVAdminRepository {
	return &KVAdminRepository{}
}

// GetAdmin возвращает администратора или пустую строку, если система не инициализирована.
func (r *KVAdminRepository) GetAdmin(ctx context.Context, rd storage.Reader) (string, error) {
	raw, err := rd.Get(ctx, storage.KindAdmin, globalKey)
	if err != nil {
		return "", fmt.Errorf("failed to read admin: %w", err)
	}
	return string(raw), nil
}

func (r *KVAdminRepository) PutAdmin(ctx context.Context, tx storage.Txn, admin string) error {
	if err := tx.Set(ctx, storage.KindAdmin, globalKey, []byte(admin)); err != nil {
		return fmt.Errorf("failed to store admin: %w", err)
	}
	return nil
}
