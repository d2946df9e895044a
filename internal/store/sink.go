package store

import (
	"context"
	"sync"

	"ingestion/internal/model"
	"ingestion/pkg/exception"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"
)

const defaultBatchSize = 256

// Sink buffers parsed messages and writes them to PostgreSQL in batches.
type Sink struct {
	mu        sync.Mutex
	db        *gorm.DB
	batchSize int
	pending   []Record
	written   uint64
	closed    bool
}

// NewSink migrates the schema and returns a sink on db.
func NewSink(ctx context.Context, db *gorm.DB, batchSize int) (*Sink, error) {
	if db == nil {
		return nil, exception.ErrNilInstance
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if err := db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return nil, errors.Wrap(exception.ErrStoreMigrate, err.Error())
	}
	return &Sink{
		db:        db,
		batchSize: batchSize,
		pending:   make([]Record, 0, batchSize),
	}, nil
}

// Add queues a message and flushes once a batch is full.
func (s *Sink) Add(ctx context.Context, msg model.MarketMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return exception.ErrStoreClosed
	}
	s.pending = append(s.pending, NewRecord(msg))
	if len(s.pending) < s.batchSize {
		return nil
	}
	return s.flushLocked(ctx)
}

// Flush writes all queued messages.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// Written returns the number of rows written so far.
func (s *Sink) Written() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

func (s *Sink) flushLocked(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(s.pending, s.batchSize).Error; err != nil {
		return errors.Wrapf(exception.ErrStoreInsert, "rows: %d, err: %v", len(s.pending), err)
	}
	s.written += uint64(len(s.pending))
	s.pending = s.pending[:0]
	return nil
}

// Close flushes queued messages and closes the connection pool.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	flushErr := s.flushLocked(ctx)

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	return flushErr
}
