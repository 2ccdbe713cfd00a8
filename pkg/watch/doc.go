// Package watch re-runs an expansion whenever the document or one of the
// files it included changes.
//
// The watcher observes the parent directory of every dependency so that
// editors which save by renaming a temporary file are still noticed. Bursts
// of events are collapsed by a Debouncer. After every run the dependency set
// is replaced by the one the run reported, so includes added or removed by
// an edit are picked up without a restart.
package watch
