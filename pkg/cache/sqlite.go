package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path is the database file.
	Path string

	// MaxOpenConns limits open connections.
	// Default: 4
	MaxOpenConns int

	// BusyTimeout is how long a writer waits for a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStore implements Store on a SQLite database in WAL mode.
type SQLiteStore struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at cfg.Path.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 4
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	s := &SQLiteStore{
		db:     db,
		config: cfg,
		logger: slog.Default().With("component", "cache.sqlite"),
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Debug("cache database opened", "path", cfg.Path, "max_open_conns", cfg.MaxOpenConns)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version.Int64 != SchemaVersion {
		return fmt.Errorf("cache schema version mismatch: expected %d, got %d", SchemaVersion, version.Int64)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		entry             Entry
		deps              string
		created, lastUsed int64
	)
	err := s.db.QueryRowContext(ctx, selectEntry, key).Scan(
		&entry.Key, &entry.Path, &entry.Output, &deps, &entry.RunID, &created, &lastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(deps), &entry.Dependencies); err != nil {
		return nil, fmt.Errorf("corrupt dependency list for %s: %w", key, err)
	}
	entry.CreatedAt = time.Unix(0, created)
	entry.LastUsed = time.Unix(0, lastUsed)
	return &entry, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, entry *Entry) error {
	deps, err := json.Marshal(entry.Dependencies)
	if err != nil {
		return fmt.Errorf("failed to encode dependencies: %w", err)
	}
	_, err = s.db.ExecContext(ctx, upsertEntry,
		entry.Key, entry.Path, entry.Output, string(deps), entry.RunID,
		entry.CreatedAt.UnixNano(), entry.LastUsed.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Touch implements Store.
func (s *SQLiteStore) Touch(ctx context.Context, key string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, touchEntry, at.UnixNano(), key)
	if err != nil {
		return fmt.Errorf("failed to touch cache entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteEntry, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// PruneOlderThan implements Store.
func (s *SQLiteStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, pruneOlderThan, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache by age: %w", err)
	}
	return res.RowsAffected()
}

// PruneToCount implements Store.
func (s *SQLiteStore) PruneToCount(ctx context.Context, max int) (int64, error) {
	if max < 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, pruneToCount, max)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache by count: %w", err)
	}
	return res.RowsAffected()
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countEntries).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
