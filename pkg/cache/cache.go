package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mercator-hq/xacro/pkg/config"
	"mercator-hq/xacro/pkg/source"
	"mercator-hq/xacro/pkg/telemetry/metrics"
)

// ErrNotFound is returned when no entry exists for a key.
var ErrNotFound = errors.New("cache entry not found")

// Dependency kinds.
const (
	// DependencyFile is a file whose content digest must still match.
	DependencyFile = ""
	// DependencyMissing is a file that was looked up and must still not
	// exist, such as an include candidate skipped in lenient mode.
	DependencyMissing = "missing"
	// DependencyEnv is an environment variable; Path holds its name and
	// Digest is empty when it was unset.
	DependencyEnv = "env"
)

// Dependency is one input read during an expansion.
type Dependency struct {
	Kind   string `json:"kind,omitempty"`
	Path   string `json:"path"`
	Digest string `json:"digest,omitempty"`
}

// EnvVar is an environment variable as an expansion saw it.
type EnvVar struct {
	Name  string
	Value string
	Set   bool
}

// Inputs is everything an expansion read besides its options.
type Inputs struct {
	// Files were read; the first is the document itself.
	Files []string
	// Missing were looked up and did not exist.
	Missing []string
	// Env were read by $(env), $(optenv) and $(find).
	Env []EnvVar
}

// LookupEnvFunc reads an environment variable.
type LookupEnvFunc func(name string) (string, bool)

// Entry is a cached expansion result.
type Entry struct {
	Key          string
	Path         string
	Output       string
	Dependencies []Dependency
	RunID        string
	CreatedAt    time.Time
	LastUsed     time.Time
}

// Store persists entries.
type Store interface {
	// Get returns the entry for key or ErrNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put inserts or replaces an entry.
	Put(ctx context.Context, entry *Entry) error

	// Touch updates the last-used time of an entry.
	Touch(ctx context.Context, key string, at time.Time) error

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PruneOlderThan removes entries last used before cutoff.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// PruneToCount removes the least recently used entries until at most
	// max remain.
	PruneToCount(ctx context.Context, max int) (int64, error)

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)

	// Close releases the store.
	Close() error
}

// Open creates the store selected by cfg.
func Open(cfg *config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "", "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create cache directory: %w", err)
			}
		}
		return NewSQLiteStore(SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Digest returns the hex sha256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key derives the cache key of a document from its path, its content and a
// fingerprint of the options that affect the output.
func Key(path string, input []byte, fingerprint string) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(input)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint renders options as a stable string. Map keys are sorted.
func Fingerprint(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte(';')
	}
	return b.String()
}

// Snapshot reads each file of in and records its digest, followed by the
// missing files and environment variables.
func Snapshot(ctx context.Context, reader source.Reader, in Inputs) ([]Dependency, error) {
	deps := make([]Dependency, 0, len(in.Files)+len(in.Missing)+len(in.Env))
	for _, p := range in.Files {
		data, err := reader.ReadFile(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot dependency: %w", err)
		}
		deps = append(deps, Dependency{Path: p, Digest: Digest(data)})
	}
	for _, p := range in.Missing {
		deps = append(deps, Dependency{Kind: DependencyMissing, Path: p})
	}
	for _, v := range in.Env {
		dep := Dependency{Kind: DependencyEnv, Path: v.Name}
		if v.Set {
			dep.Digest = Digest([]byte(v.Value))
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// Fresh reports whether every dependency of e is unchanged: files keep
// their digest, missing files are still missing and environment variables
// keep their value. A nil env reads the process environment.
func (e *Entry) Fresh(ctx context.Context, reader source.Reader, env LookupEnvFunc) bool {
	if env == nil {
		env = os.LookupEnv
	}
	for _, dep := range e.Dependencies {
		switch dep.Kind {
		case DependencyFile:
			data, err := reader.ReadFile(ctx, dep.Path)
			if err != nil || Digest(data) != dep.Digest {
				return false
			}
		case DependencyMissing:
			if _, err := reader.ReadFile(ctx, dep.Path); !errors.Is(err, source.ErrNotFound) {
				return false
			}
		case DependencyEnv:
			v, ok := env(dep.Path)
			if (!ok && dep.Digest != "") || (ok && Digest([]byte(v)) != dep.Digest) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// DependencyPaths returns the paths of the files the entry was built from.
func (e *Entry) DependencyPaths() []string {
	paths := make([]string, 0, len(e.Dependencies))
	for _, dep := range e.Dependencies {
		if dep.Kind == DependencyFile {
			paths = append(paths, dep.Path)
		}
	}
	return paths
}

// Cache validates entries against the files they were built from.
type Cache struct {
	store   Store
	reader  source.Reader
	logger  *slog.Logger
	metrics *metrics.Collector
}

// New creates a cache over store. Dependencies are re-read through reader.
// logger and collector may be nil.
func New(store Store, reader source.Reader, logger *slog.Logger, collector *metrics.Collector) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:   store,
		reader:  reader,
		logger:  logger.With("component", "cache"),
		metrics: collector,
	}
}

// Store returns the underlying store.
func (c *Cache) Store() Store {
	return c.store
}

// Lookup returns a fresh entry for key, reading environment variables
// through env (os.LookupEnv when nil). Stale entries are deleted.
func (c *Cache) Lookup(ctx context.Context, key string, env LookupEnvFunc) (*Entry, bool) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("cache lookup failed", "key", short(key), "error", err)
		}
		c.metrics.RecordCacheLookup("miss")
		return nil, false
	}

	if !entry.Fresh(ctx, c.reader, env) {
		c.logger.Debug("cache entry stale", "key", short(key), "path", entry.Path)
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn("failed to delete stale entry", "key", short(key), "error", err)
		}
		c.metrics.RecordCacheLookup("stale")
		return nil, false
	}

	now := time.Now()
	if err := c.store.Touch(ctx, key, now); err != nil {
		c.logger.Warn("failed to touch cache entry", "key", short(key), "error", err)
	}
	entry.LastUsed = now
	c.metrics.RecordCacheLookup("hit")
	return entry, true
}

// Save records an expansion result and the current state of its inputs.
func (c *Cache) Save(ctx context.Context, key, path, output, runID string, in Inputs) error {
	deps, err := Snapshot(ctx, c.reader, in)
	if err != nil {
		return err
	}

	now := time.Now()
	entry := &Entry{
		Key:          key,
		Path:         path,
		Output:       output,
		Dependencies: deps,
		RunID:        runID,
		CreatedAt:    now,
		LastUsed:     now,
	}
	if err := c.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	if n, err := c.store.Count(ctx); err == nil {
		c.metrics.UpdateCacheEntries(n)
	}
	c.logger.Debug("cache entry stored", "key", short(key), "path", path, "dependencies", len(deps))
	return nil
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
