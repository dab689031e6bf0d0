// Package badger provides an embedded ExecutionRepository on dgraph-io/badger.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/goccy/go-json"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/persistence"
)

const (
	keyPrefix  = "execution/"
	gcInterval = 5 * time.Minute
	gcDiscard  = 0.5
)

// Repository implements persistence.ExecutionRepository on a badger database.
type Repository struct {
	db     *badger.DB
	logger *slog.Logger
	stop   chan struct{}
	done   chan struct{}
}

// NewRepository opens (or creates) a database in dir. A badger:// prefix is accepted.
// An empty dir opens an in-memory database.
func NewRepository(logger *slog.Logger, dir string) (*Repository, error) {
	dir = strings.Replace(dir, "badger://", "", 1)

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	opts.Logger = &badgerLogger{logger: logger.With("component", "badger")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dir, err)
	}

	repo := &Repository{
		db:     db,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	if dir == "" {
		close(repo.done)
	} else {
		go repo.runGarbageCollection()
	}

	return repo, nil
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

func (r *Repository) Save(_ context.Context, record *models.ExecutionRecord) error {
	err := persistence.CheckExecutionID(record.ID)
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, fmt.Errorf("failed to marshal record: %w", err))
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(record.ID), data)
	})
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, err)
	}

	return nil
}

func (r *Repository) Get(_ context.Context, id string) (*models.ExecutionRecord, error) {
	var record models.ExecutionRecord

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, persistence.NewExecutionError("Get", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("Get", id, err)
	}

	return &record, nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key(id))
		if err != nil {
			return err
		}

		return txn.Delete(key(id))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return persistence.NewExecutionError("Delete", id, persistence.ErrExecutionNotFound)
		}

		return persistence.NewExecutionError("Delete", id, err)
	}

	return nil
}

func (r *Repository) List(_ context.Context) ([]*models.ExecutionRecord, error) {
	records := make([]*models.ExecutionRecord, 0)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var record models.ExecutionRecord

			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", item.Key(), err)
			}

			records = append(records, &record)
		}

		return nil
	})
	if err != nil {
		return nil, persistence.NewExecutionError("List", "", err)
	}

	return records, nil
}

func (r *Repository) HealthCheck(_ context.Context) error {
	if r.db.IsClosed() {
		return errors.New("badger database is closed")
	}

	return nil
}

// Close stops value log garbage collection and closes the database.
func (r *Repository) Close(_ context.Context) error {
	select {
	case <-r.stop:
		return nil
	default:
		close(r.stop)
	}

	<-r.done

	err := r.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	return nil
}

func (r *Repository) runGarbageCollection() {
	defer close(r.done)

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			lsm, vlog := r.db.Size()
			r.logger.Debug("Running badger garbage collection", "lsm_size", lsm, "vlog_size", vlog)

			err := r.db.RunValueLogGC(gcDiscard)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				r.logger.Error("Badger garbage collection failed", "error", err)
			}
		}
	}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...any) {
	l.logger.Error(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Warningf(f string, v ...any) {
	l.logger.Warn(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Infof(f string, v ...any) {
	l.logger.Debug(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Debugf(f string, v ...any) {
	l.logger.Debug(fmt.Sprintf(f, v...))
}
