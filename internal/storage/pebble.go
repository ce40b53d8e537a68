package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

const (
	// defaultSyncInterval - интервал фоновой синхронизации WAL.
	defaultSyncInterval = 100 * time.Millisecond
)

// PebbleOptions - параметры встроенного хранилища.
type PebbleOptions struct {
	Path string
	// FS позволяет подменить файловую систему, например vfs.NewMem() в тестах.
	FS vfs.FS
	// SyncWrites включает fsync на каждом коммите. Иначе WAL синхронизируется фоном.
	SyncWrites bool
}

// PebbleStore - реализация Store поверх Pebble.
type PebbleStore struct {
	db       *pebble.DB
	locks    *scopeLocks
	write    *pebble.WriteOptions
	stopSync chan struct{}
	wg       sync.WaitGroup
}

// OpenPebble открывает или создает базу по пути opts.Path.
func OpenPebble(opts PebbleOptions) (*PebbleStore, error) {
	pOpts := &pebble.Options{
		Cache:                       pebble.NewCache(32 << 20), // 32 МБ
		MemTableSize:                16 << 20,                  // 16 МБ
		MemTableStopWritesThreshold: 2,
		FS:                          opts.FS,
	}

	db, err := pebble.Open(opts.Path, pOpts)
	if err != nil {
		return nil, err
	}

	s := &PebbleStore{
		db:       db,
		locks:    newScopeLocks(),
		write:    pebble.NoSync,
		stopSync: make(chan struct{}),
	}
	if opts.SyncWrites {
		s.write = pebble.Sync
	} else {
		s.startSyncLoop()
	}

	return s, nil
}

// Update выполняет fn над индексированным батчем и коммитит его целиком.
func (s *PebbleStore) Update(ctx context.Context, scope string, fn func(tx Txn) error) error {
	unlock := s.locks.lock(scope)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	batch := s.db.NewIndexedBatch()
	defer batch.Close()

	if err := fn(&pebbleTxn{pebbleReader{r: batch}, batch}); err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}
	return batch.Commit(s.write)
}

// View читает из снимка базы.
func (s *PebbleStore) View(ctx context.Context, fn func(r Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.db.NewSnapshot()
	defer snap.Close()

	return fn(pebbleReader{r: snap})
}

// Close останавливает фоновую синхронизацию и закрывает базу.
func (s *PebbleStore) Close() error {
	close(s.stopSync)
	s.wg.Wait()

	// финальная синхронизация WAL
	if err := s.sync(); err != nil {
		return err
	}

	return s.db.Close()
}

// startSyncLoop запускает фоновую периодическую синхронизацию WAL.
func (s *PebbleStore) startSyncLoop() {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(defaultSyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = s.sync()
			case <-s.stopSync:
				return
			}
		}
	}()
}

// sync принудительно сбрасывает WAL на диск.
func (s *PebbleStore) sync() error {
	return s.db.LogData(nil, pebble.Sync)
}

// pebbleKey кодирует (kind, key) как "kind\x00key".
func pebbleKey(kind Kind, key string) []byte {
	k := make([]byte, 0, len(kind)+1+len(key))
	k = append(k, kind...)
	k = append(k, 0)
	return append(k, key...)
}

type pebbleReader struct {
	r pebble.Reader
}

func (p pebbleReader) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, closer, err := p.r.Get(pebbleKey(kind, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	// после closer.Close() буфер value недействителен
	result := make([]byte, len(value))
	copy(result, value)

	return result, nil
}

func (p pebbleReader) Has(ctx context.Context, kind Kind, key string) (bool, error) {
	v, err := p.Get(ctx, kind, key)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

func (p pebbleReader) GetMany(ctx context.Context, kind Kind, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		v, err := p.Get(ctx, kind, key)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[key] = v
		}
	}
	return out, nil
}

type pebbleTxn struct {
	pebbleReader
	batch *pebble.Batch
}

func (t *pebbleTxn) Set(ctx context.Context, kind Kind, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.batch.Set(pebbleKey(kind, key), value, nil)
}
