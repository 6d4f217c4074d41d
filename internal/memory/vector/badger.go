package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// Key layout:
//
//	m/<collection>/gen          -> uint64 current generation
//	r/<collection>/<gen>/<id>   -> JSON VectorRecord
//
// ReplaceAll writes a complete new generation and then flips the generation
// pointer in one transaction, so readers never see a half-built collection.

// BadgerVectorStore persists records in an embedded BadgerDB key-value store.
type BadgerVectorStore struct {
	mu         sync.RWMutex
	db         *badger.DB
	dims       int
	collection string
	metric     Metric
	closed     bool
}

// BadgerVecConfig holds configuration for BadgerVectorStore.
type BadgerVecConfig struct {
	Dir        string // data directory; ignored when InMemory
	InMemory   bool
	Collection string // defaults to "vectors"
	Dims       int
	Metric     Metric
}

// NewBadgerVectorStore opens the BadgerDB at cfg.Dir.
func NewBadgerVectorStore(cfg BadgerVecConfig) (*BadgerVectorStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, types.NewError(ErrCodeInvalidConfig, "data directory cannot be empty")
	}
	if cfg.Dims <= 0 {
		return nil, types.NewError(ErrCodeInvalidConfig, fmt.Sprintf("dimensions must be positive, got %d", cfg.Dims))
	}
	if cfg.Collection == "" {
		cfg.Collection = "vectors"
	}
	if cfg.Metric == "" {
		cfg.Metric = MetricL2
	}

	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, types.WrapError(ErrCodeVectorStoreFailed, "failed to open badger database", err)
	}

	return &BadgerVectorStore{
		db:         db,
		dims:       cfg.Dims,
		collection: cfg.Collection,
		metric:     cfg.Metric,
	}, nil
}

func (s *BadgerVectorStore) genKey() []byte {
	return []byte("m/" + s.collection + "/gen")
}

func (s *BadgerVectorStore) genPrefix(gen uint64) []byte {
	return []byte(fmt.Sprintf("r/%s/%020d/", s.collection, gen))
}

func (s *BadgerVectorStore) recordKey(gen uint64, id string) []byte {
	return append(s.genPrefix(gen), id...)
}

// currentGen reads the generation pointer. A missing pointer is generation 0.
func (s *BadgerVectorStore) currentGen(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(s.genKey())
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var gen uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt generation pointer (%d bytes)", len(val))
		}
		gen = binary.BigEndian.Uint64(val)
		return nil
	})
	return gen, err
}

func (s *BadgerVectorStore) Store(ctx context.Context, record VectorRecord) error {
	return s.StoreBatch(ctx, []VectorRecord{record})
}

// StoreBatch writes records into the current generation in one transaction.
func (s *BadgerVectorStore) StoreBatch(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateForStore(records, s.dims); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		gen, err := s.currentGen(txn)
		if err != nil {
			return err
		}
		for _, record := range records {
			data, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err := txn.Set(s.recordKey(gen, record.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to store batch", err)
	}
	return nil
}

// ReplaceAll stages records under a fresh generation, flips the pointer, then
// drops the previous generation.
func (s *BadgerVectorStore) ReplaceAll(ctx context.Context, records []VectorRecord) error {
	if err := validateForStore(records, s.dims); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	var oldGen uint64
	if err := s.db.View(func(txn *badger.Txn) error {
		var err error
		oldGen, err = s.currentGen(txn)
		return err
	}); err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to read generation", err)
	}
	newGen := oldGen + 1

	// A crashed earlier run may have left a partial staging generation.
	if err := s.db.DropPrefix(s.genPrefix(newGen)); err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to clear staging generation", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return types.WrapError(ErrCodeVectorStoreFailed, "replace cancelled", err)
		}
		data, err := json.Marshal(record)
		if err != nil {
			return types.WrapError(ErrCodeVectorStoreFailed, "failed to serialize record", err)
		}
		if err := wb.Set(s.recordKey(newGen, record.ID), data); err != nil {
			return types.WrapError(ErrCodeVectorStoreFailed, "failed to stage record", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to flush staged records", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, newGen)
		return txn.Set(s.genKey(), buf)
	}); err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to publish generation", err)
	}

	if err := s.db.DropPrefix(s.genPrefix(oldGen)); err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to drop previous generation", err)
	}
	return nil
}

// scan calls fn for every record of the current generation.
func (s *BadgerVectorStore) scan(ctx context.Context, fn func(VectorRecord)) error {
	return s.db.View(func(txn *badger.Txn) error {
		gen, err := s.currentGen(txn)
		if err != nil {
			return err
		}
		prefix := s.genPrefix(gen)

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record VectorRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}
			fn(record)
		}
		return nil
	})
}

func (s *BadgerVectorStore) Search(ctx context.Context, query VectorQuery) ([]VectorResult, error) {
	if err := query.Validate(s.dims); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	r := newRanker(query, s.metric)
	if err := s.scan(ctx, r.offer); err != nil {
		return nil, types.WrapError(ErrCodeVectorSearchFailed, "failed to scan records", err)
	}
	return r.top(), nil
}

func (s *BadgerVectorStore) Get(ctx context.Context, id string) (*VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	var record VectorRecord
	err := s.db.View(func(txn *badger.Txn) error {
		gen, err := s.currentGen(txn)
		if err != nil {
			return err
		}
		item, err := txn.Get(s.recordKey(gen, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, types.NewError(ErrCodeVectorNotFound, fmt.Sprintf("vector record not found: %s", id))
	}
	if err != nil {
		return nil, types.WrapError(ErrCodeVectorSearchFailed, "failed to get record", err)
	}
	return &record, nil
}

func (s *BadgerVectorStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		gen, err := s.currentGen(txn)
		if err != nil {
			return err
		}
		return txn.Delete(s.recordKey(gen, id))
	})
	if err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to delete record", err)
	}
	return nil
}

func (s *BadgerVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errClosed()
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		gen, err := s.currentGen(txn)
		if err != nil {
			return err
		}
		prefix := s.genPrefix(gen)

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, types.WrapError(ErrCodeVectorStoreFailed, "failed to count records", err)
	}
	return count, nil
}

func (s *BadgerVectorStore) Metric() Metric {
	return s.metric
}

func (s *BadgerVectorStore) Health(ctx context.Context) types.HealthStatus {
	count, err := s.Count(ctx)
	if err != nil {
		if types.CodeOf(err) == ErrCodeVectorStoreUnavailable {
			return types.Unhealthy("badger vector store is closed")
		}
		return types.Degraded(fmt.Sprintf("failed to count records: %v", err))
	}
	return types.Healthy(fmt.Sprintf("badger vector store operational with %d records (dims: %d, metric: %s)",
		count, s.dims, s.metric))
}

func (s *BadgerVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
