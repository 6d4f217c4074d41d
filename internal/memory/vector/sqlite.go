package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sync"

	"github.com/Jaiwincr7/rag-based-model/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SqliteVecStore persists records in a SQLite table and ranks them in Go.
// Embeddings are stored as little-endian float64 BLOBs and metadata as JSON.
type SqliteVecStore struct {
	mu        sync.RWMutex
	db        *sql.DB
	dims      int
	tableName string
	metric    Metric
	closed    bool
}

// SqliteVecConfig holds configuration for SqliteVecStore.
type SqliteVecConfig struct {
	DBPath    string // path to the database file
	TableName string // defaults to "vectors"
	Dims      int
	Metric    Metric
}

// NewSqliteVecStore opens (or creates) the database and its table.
func NewSqliteVecStore(cfg SqliteVecConfig) (*SqliteVecStore, error) {
	if cfg.DBPath == "" {
		return nil, types.NewError(ErrCodeInvalidConfig, "database path cannot be empty")
	}
	if cfg.Dims <= 0 {
		return nil, types.NewError(ErrCodeInvalidConfig, fmt.Sprintf("dimensions must be positive, got %d", cfg.Dims))
	}
	if cfg.TableName == "" {
		cfg.TableName = "vectors"
	}
	if !tableNamePattern.MatchString(cfg.TableName) {
		return nil, types.NewError(ErrCodeInvalidConfig, fmt.Sprintf("invalid table name %q", cfg.TableName))
	}
	if cfg.Metric == "" {
		cfg.Metric = MetricL2
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", cfg.DBPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(ErrCodeVectorStoreFailed, "failed to open database", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, types.WrapError(ErrCodeVectorStoreFailed, "failed to ping database", err)
	}

	store := &SqliteVecStore{
		db:        db,
		dims:      cfg.Dims,
		tableName: cfg.TableName,
		metric:    cfg.Metric,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, types.WrapError(ErrCodeVectorStoreFailed, "failed to initialize schema", err)
	}

	return store, nil
}

func (s *SqliteVecStore) initSchema() error {
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding BLOB NOT NULL,
			metadata TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, s.tableName)

	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create vectors table: %w", err)
	}
	return nil
}

func (s *SqliteVecStore) Store(ctx context.Context, record VectorRecord) error {
	return s.StoreBatch(ctx, []VectorRecord{record})
}

// StoreBatch upserts records inside one transaction.
func (s *SqliteVecStore) StoreBatch(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.write(ctx, records, false)
}

// ReplaceAll clears the table and inserts records inside one transaction.
func (s *SqliteVecStore) ReplaceAll(ctx context.Context, records []VectorRecord) error {
	return s.write(ctx, records, true)
}

func (s *SqliteVecStore) write(ctx context.Context, records []VectorRecord, truncate bool) error {
	if err := validateForStore(records, s.dims); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if truncate {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.tableName)); err != nil {
			return types.WrapError(ErrCodeVectorStoreFailed, "failed to clear collection", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (id, content, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.tableName))
	if err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to prepare statement", err)
	}
	defer stmt.Close()

	for _, record := range records {
		var metadataJSON []byte
		if record.Metadata != nil {
			metadataJSON, err = json.Marshal(record.Metadata)
			if err != nil {
				return types.WrapError(ErrCodeVectorStoreFailed, "failed to serialize metadata", err)
			}
		}

		_, err = stmt.ExecContext(ctx,
			record.ID,
			record.Content,
			serializeEmbedding(record.Embedding),
			metadataJSON,
			record.CreatedAt,
		)
		if err != nil {
			return types.WrapError(ErrCodeVectorStoreFailed,
				fmt.Sprintf("failed to insert record %s", record.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to commit transaction", err)
	}
	return nil
}

// Search scans the table and ranks rows in Go.
func (s *SqliteVecStore) Search(ctx context.Context, query VectorQuery) ([]VectorResult, error) {
	if err := query.Validate(s.dims); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, content, embedding, metadata, created_at FROM %s", s.tableName))
	if err != nil {
		return nil, types.WrapError(ErrCodeVectorSearchFailed, "failed to query vectors", err)
	}
	defer rows.Close()

	r := newRanker(query, s.metric)
	for rows.Next() {
		record, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		r.offer(*record)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(ErrCodeVectorSearchFailed, "error iterating rows", err)
	}

	return r.top(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SqliteVecStore) scanRecord(row rowScanner) (*VectorRecord, error) {
	var record VectorRecord
	var embeddingBytes []byte
	var metadataJSON []byte

	if err := row.Scan(&record.ID, &record.Content, &embeddingBytes, &metadataJSON, &record.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, types.WrapError(ErrCodeVectorSearchFailed, "failed to scan record", err)
	}

	embedding, err := deserializeEmbedding(embeddingBytes, s.dims)
	if err != nil {
		return nil, types.WrapError(ErrCodeVectorSearchFailed, "failed to deserialize embedding", err)
	}
	record.Embedding = embedding

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
			return nil, types.WrapError(ErrCodeVectorSearchFailed, "failed to deserialize metadata", err)
		}
	}
	return &record, nil
}

func (s *SqliteVecStore) Get(ctx context.Context, id string) (*VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, content, embedding, metadata, created_at FROM %s WHERE id = ?", s.tableName), id)
	record, err := s.scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewError(ErrCodeVectorNotFound, fmt.Sprintf("vector record not found: %s", id))
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SqliteVecStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName), id); err != nil {
		return types.WrapError(ErrCodeVectorStoreFailed, "failed to delete record", err)
	}
	return nil
}

func (s *SqliteVecStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errClosed()
	}

	var count int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)).Scan(&count); err != nil {
		return 0, types.WrapError(ErrCodeVectorStoreFailed, "failed to count records", err)
	}
	return count, nil
}

func (s *SqliteVecStore) Metric() Metric {
	return s.metric
}

func (s *SqliteVecStore) Health(ctx context.Context) types.HealthStatus {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return types.Unhealthy("sqlite vector store is closed")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return types.Unhealthy(fmt.Sprintf("database ping failed: %v", err))
	}

	count, err := s.Count(ctx)
	if err != nil {
		return types.Degraded(fmt.Sprintf("failed to count records: %v", err))
	}
	return types.Healthy(fmt.Sprintf("sqlite vector store operational with %d records (dims: %d, metric: %s)",
		count, s.dims, s.metric))
}

func (s *SqliteVecStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// serializeEmbedding encodes a vector as 8 little-endian bytes per component.
func serializeEmbedding(embedding []float64) []byte {
	buf := make([]byte, len(embedding)*8)
	for i, v := range embedding {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func deserializeEmbedding(buf []byte, dims int) ([]float64, error) {
	if len(buf) != dims*8 {
		return nil, fmt.Errorf("invalid embedding bytes length: expected %d, got %d", dims*8, len(buf))
	}
	embedding := make([]float64, dims)
	for i := range embedding {
		embedding[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return embedding, nil
}
