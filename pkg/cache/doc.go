// Package cache stores expanded documents keyed by a digest of their input.
//
// An entry records the digest of every file the expansion read, the files
// it looked for and did not find, and the environment variables it read. A
// lookup only hits when all of them are unchanged, so editing an included
// file, creating a skipped include or changing $(env ...) invalidates every
// document that depends on it.
//
// Two stores are provided: MemoryStore for tests and short-lived processes,
// and SQLiteStore (modernc.org/sqlite, no cgo) for a persistent cache shared
// between runs. Pruner and Scheduler enforce the retention settings.
//
// Example:
//
//	store, err := cache.Open(&cfg.Cache)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	c := cache.New(store, reader, logger, collector)
//	if entry, ok := c.Lookup(ctx, key, os.LookupEnv); ok {
//		return entry.Output, nil
//	}
package cache
