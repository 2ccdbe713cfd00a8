package xacro

import (
	"os"
	"sort"
	"sync"

	"mercator-hq/xacro/pkg/cache"
)

// envRecorder remembers the environment variables an expansion read.
type envRecorder struct {
	lookup func(string) (string, bool)

	mu   sync.Mutex
	seen map[string]cache.EnvVar
}

func newEnvRecorder(lookup func(string) (string, bool)) *envRecorder {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &envRecorder{lookup: lookup, seen: make(map[string]cache.EnvVar)}
}

// LookupEnv reads name and records what was seen.
func (r *envRecorder) LookupEnv(name string) (string, bool) {
	v, ok := r.lookup(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[name] = cache.EnvVar{Name: name, Value: v, Set: ok}
	return v, ok
}

// Vars returns the variables read, sorted by name.
func (r *envRecorder) Vars() []cache.EnvVar {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]cache.EnvVar, 0, len(r.seen))
	for _, v := range r.seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
