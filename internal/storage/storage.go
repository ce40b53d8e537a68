// Package storage - транзакционное key-value хранилище, адресуемое парой (вид записи, ключ).
package storage

import (
	"context"
	"hash/maphash"
	"sync"
)

// Kind - вид записи в хранилище.
type Kind string

const (
	KindTenderCount Kind = "tender_count" // Счетчик идентификаторов тендеров
	KindTender      Kind = "tender"       // Тендер по id
	KindBid         Kind = "bid"          // Предложение по "<tenderId>/<bidder>"
	KindBidders     Kind = "bidders"      // Индекс участников тендера
	KindWinner      Kind = "winner"       // Победитель тендера
	KindAdmin       Kind = "admin"        // Администратор системы
)

// Reader - чтение записей. Get возвращает nil, если ключа нет.
type Reader interface {
	Get(ctx context.Context, kind Kind, key string) ([]byte, error)
	Has(ctx context.Context, kind Kind, key string) (bool, error)
	// GetMany возвращает найденные значения по ключам; отсутствующие ключи в результат не попадают.
	GetMany(ctx context.Context, kind Kind, keys []string) (map[string][]byte, error)
}

// Txn - чтение и запись в рамках одной транзакции.
type Txn interface {
	Reader
	Set(ctx context.Context, kind Kind, key string, value []byte) error
}

// Store - хранилище с атомарными транзакциями.
type Store interface {
	// Update выполняет fn в транзакции. Транзакции с одинаковым scope выполняются строго
	// последовательно. Если fn вернула ошибку, ни одна запись не применяется.
	Update(ctx context.Context, scope string, fn func(tx Txn) error) error
	// View выполняет fn над согласованным снимком данных.
	View(ctx context.Context, fn func(r Reader) error) error
	Close() error
}

const lockStripes = 64

// scopeLocks сериализует писателей одного scope внутри процесса.
type scopeLocks struct {
	seed    maphash.Seed
	stripes [lockStripes]sync.Mutex
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{seed: maphash.MakeSeed()}
}

// lock захватывает мьютекс scope и возвращает функцию освобождения.
func (l *scopeLocks) lock(scope string) func() {
	m := &l.stripes[maphash.String(l.seed, scope)%lockStripes]
	m.Lock()
	return m.Unlock
}
