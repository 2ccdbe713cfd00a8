package source

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Recorder wraps a Reader and remembers every path read through it, split
// into files that were found and files that did not exist. It is safe for
// concurrent use.
type Recorder struct {
	Reader

	mu      sync.Mutex
	found   map[string]bool
	missing map[string]bool
}

// NewRecorder returns a recorder reading through r.
func NewRecorder(r Reader) *Recorder {
	return &Recorder{
		Reader:  r,
		found:   make(map[string]bool),
		missing: make(map[string]bool),
	}
}

// ReadFile implements Reader.
func (r *Recorder) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := r.Reader.ReadFile(ctx, path)
	abs := r.Reader.Abs(path)

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err == nil:
		r.found[abs] = true
	case errors.Is(err, ErrNotFound):
		r.missing[abs] = true
	}
	return data, err
}

// Found returns the canonical paths of the files read, sorted.
func (r *Recorder) Found() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.found, nil)
}

// Missing returns the canonical paths looked up that did not exist, sorted.
// A path also found later is not reported.
func (r *Recorder) Missing() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.missing, r.found)
}

func sortedKeys(set, exclude map[string]bool) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		if !exclude[p] {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
