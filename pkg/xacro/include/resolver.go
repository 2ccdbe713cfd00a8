package include

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"mercator-hq/xacro/pkg/source"
	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
	"mercator-hq/xacro/pkg/xacro/eval"
	"mercator-hq/xacro/pkg/xacro/parser"
)

// Resolver locates, parses and splices included documents.
type Resolver struct {
	reader      source.Reader
	parser      *parser.Parser
	dialect     *dom.Dialect
	logger      *slog.Logger
	searchPaths []string
	lenient     bool
	concurrency int

	mu     sync.Mutex
	loaded map[string]*loaded // candidate key -> result
	deps   map[string]bool    // canonical paths read
	count  int                // includes spliced
}

// loaded is the outcome of locating and parsing one include.
type loaded struct {
	path string // path the document was read from
	abs  string // canonical path
	doc  *dom.Document
	err  error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSearchPaths sets the directories searched after the including
// document's directory.
func WithSearchPaths(paths ...string) Option {
	return func(r *Resolver) {
		r.searchPaths = append([]string(nil), paths...)
	}
}

// WithLenient drops includes whose file cannot be found instead of failing.
func WithLenient(lenient bool) Option {
	return func(r *Resolver) {
		r.lenient = lenient
	}
}

// WithConcurrency bounds the number of files read and parsed at once.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithParser sets the parser used for included documents.
func WithParser(p *parser.Parser) Option {
	return func(r *Resolver) {
		r.parser = p
	}
}

// WithDialect shares a dialect with the expander. Prefix bindings of
// included documents are recorded in it.
func WithDialect(d *dom.Dialect) Option {
	return func(r *Resolver) {
		r.dialect = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver reading through reader.
func NewResolver(reader source.Reader, opts ...Option) *Resolver {
	r := &Resolver{
		reader:      reader,
		parser:      parser.NewParser(),
		dialect:     dom.NewDialect(),
		logger:      slog.Default(),
		concurrency: runtime.GOMAXPROCS(0),
		loaded:      make(map[string]*loaded),
		deps:        make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "include")
	return r
}

// Dialect returns the dialect used to recognise directives.
func (r *Resolver) Dialect() *dom.Dialect {
	return r.dialect
}

// Dependencies returns the canonical paths of every document read, sorted.
func (r *Resolver) Dependencies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deps))
	for p := range r.deps {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of includes spliced so far.
func (r *Resolver) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// RootStack returns the include stack for a top-level document.
func (r *Resolver) RootStack(doc *dom.Document) []string {
	if doc.Path == "" {
		return nil
	}
	return []string{r.reader.Abs(doc.Path)}
}

// Resolve splices every include of doc that can be resolved before
// expansion. interp interpolates filenames; failures to interpolate leave
// the directive in place for the expander.
func (r *Resolver) Resolve(ctx context.Context, doc *dom.Document, interp *eval.Interpolator) error {
	if doc.Root == nil {
		return nil
	}
	r.dialect.Learn(doc)

	stack := r.RootStack(doc)
	if len(stack) > 0 {
		r.markDependency(stack[0])
	}
	return r.resolveDocument(ctx, doc.Root, baseDir(doc.Path), stack, interp)
}

// ResolveElement resolves one include directive met during expansion. It
// returns the nodes to splice in its place and the canonical path of the
// included document. The returned nodes have had their own includes
// resolved as far as possible. A lenient miss returns no nodes and an empty
// path.
func (r *Resolver) ResolveElement(ctx context.Context, el *dom.Element, stack []string, interp *eval.Interpolator) ([]dom.Node, string, error) {
	filename, err := r.filename(el, interp)
	if err != nil {
		return nil, "", withStack(err, stack)
	}
	return r.include(ctx, el, filename, stack, interp)
}

// resolveDocument prefetches the includes reachable from root once, then
// splices them in place.
func (r *Resolver) resolveDocument(ctx context.Context, root *dom.Element, dir string, stack []string, interp *eval.Interpolator) error {
	r.prefetch(ctx, root, dir, interp)
	return r.resolveTree(ctx, root, dir, stack, interp)
}

// resolveTree walks the children of parent, splicing includes in place.
func (r *Resolver) resolveTree(ctx context.Context, parent *dom.Element, dir string, stack []string, interp *eval.Interpolator) error {
	for i := 0; i < len(parent.Children); {
		if err := ctx.Err(); err != nil {
			return err
		}
		el, ok := parent.Children[i].(*dom.Element)
		if !ok {
			i++
			continue
		}

		switch {
		case r.dialect.Is(el, "include"):
			filename, err := r.filename(el, interp)
			if err != nil {
				if xacroErrors.KindOf(err) == xacroErrors.KindSyntax {
					return withStack(err, stack)
				}
				// Needs a scope only the expander has.
				i++
				continue
			}
			nodes, _, err := r.includeFrom(ctx, el, filename, dir, stack, interp)
			if err != nil {
				return err
			}
			i = parent.Splice(i, nodes...)

		case r.dialect.Is(el, "macro"), r.dialect.Is(el, "if"), r.dialect.Is(el, "unless"):
			i++

		default:
			if err := r.resolveTree(ctx, el, dir, stack, interp); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}

func (r *Resolver) include(ctx context.Context, el *dom.Element, filename string, stack []string, interp *eval.Interpolator) ([]dom.Node, string, error) {
	return r.includeFrom(ctx, el, filename, baseDir(el.Location.File), stack, interp)
}

func (r *Resolver) includeFrom(ctx context.Context, el *dom.Element, filename, dir string, stack []string, interp *eval.Interpolator) ([]dom.Node, string, error) {
	res := r.load(ctx, filename, dir)
	if res.err != nil {
		if errors.Is(res.err, source.ErrNotFound) {
			if r.lenient {
				r.logger.Warn("include not found, skipping",
					"filename", filename,
					"location", el.Location.String(),
				)
				return nil, "", nil
			}
			e := xacroErrors.Wrap(xacroErrors.KindIncludeNotFound, el.Location, res.err,
				"include file %q not found (searched: %s)", filename, strings.Join(r.candidates(filename, dir), ", "))
			e.Suggestion = "Check the filename or add its directory to the include search paths"
			return nil, "", withStack(e, stack)
		}
		return nil, "", withStack(res.err, stack)
	}

	for i, p := range stack {
		if p == res.abs {
			cycle := append(append([]string(nil), stack[i:]...), res.abs)
			e := xacroErrors.New(xacroErrors.KindCircularInclude, el.Location,
				"circular include detected: %s", strings.Join(cycle, " -> "))
			e.IncludeStack = append(append([]string(nil), stack...), res.abs)
			return nil, "", e
		}
	}

	doc := res.doc.Clone()
	r.dialect.Learn(doc)

	inner := append(append([]string(nil), stack...), res.abs)
	if err := r.resolveDocument(ctx, doc.Root, baseDir(res.path), inner, interp); err != nil {
		return nil, "", err
	}

	r.mu.Lock()
	r.count++
	r.mu.Unlock()

	r.logger.Debug("include resolved",
		"filename", filename,
		"path", res.path,
		"depth", len(inner)-1,
	)
	return doc.Root.Children, res.abs, nil
}

// filename returns the interpolated filename attribute of an include.
func (r *Resolver) filename(el *dom.Element, interp *eval.Interpolator) (string, error) {
	raw, ok := el.LookupAttr("filename")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", xacroErrors.New(xacroErrors.KindSyntax, el.Location,
			"<%s> requires a filename attribute", el.Name)
	}
	if interp == nil {
		return raw, nil
	}
	name, err := interp.Interpolate(raw)
	if err != nil {
		if xe, ok := xacroErrors.As(err); ok {
			xe.WithLocation(el.Location)
		}
		return "", err
	}
	return name, nil
}

// candidates lists the paths tried for filename, in order.
func (r *Resolver) candidates(filename, dir string) []string {
	if filepath.IsAbs(filename) {
		return []string{filepath.Clean(filename)}
	}
	out := make([]string, 0, 1+len(r.searchPaths))
	out = append(out, filepath.Join(dir, filename))
	for _, sp := range r.searchPaths {
		out = append(out, filepath.Join(sp, filename))
	}
	return out
}

// load locates and parses filename, memoising the result.
func (r *Resolver) load(ctx context.Context, filename, dir string) *loaded {
	key := dir + "\x00" + filename

	r.mu.Lock()
	if res, ok := r.loaded[key]; ok {
		r.mu.Unlock()
		return res
	}
	r.mu.Unlock()

	res := r.read(ctx, filename, dir)

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.loaded[key]; ok {
		return prev
	}
	r.loaded[key] = res
	if res.abs != "" {
		r.deps[res.abs] = true
	}
	return res
}

func (r *Resolver) read(ctx context.Context, filename, dir string) *loaded {
	var lastErr error
	for _, candidate := range r.candidates(filename, dir) {
		doc, err := r.parser.ParseFile(ctx, r.reader, candidate)
		if err == nil {
			return &loaded{path: candidate, abs: r.reader.Abs(candidate), doc: doc}
		}
		if !errors.Is(err, source.ErrNotFound) {
			return &loaded{path: candidate, abs: r.reader.Abs(candidate), err: err}
		}
		lastErr = err
	}
	return &loaded{err: lastErr}
}

// prefetch reads and parses, in parallel, the includes directly reachable
// from parent that load would otherwise read one after another.
func (r *Resolver) prefetch(ctx context.Context, parent *dom.Element, dir string, interp *eval.Interpolator) {
	var names []string
	r.collect(parent, interp, &names)
	if len(names) < 2 || r.concurrency < 2 {
		return
	}
	r.logger.Debug("prefetching includes", "dir", dir, "count", len(names))

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		sem <- struct{}{}
		go func(name string) {
			defer wg.Done()
			defer func() { <-sem }()
			r.load(ctx, name, dir)
		}(name)
	}
	wg.Wait()
}

// collect gathers the filenames of includes resolvable before expansion,
// at any depth, skipping the regions resolveTree skips.
func (r *Resolver) collect(parent *dom.Element, interp *eval.Interpolator, names *[]string) {
	for _, c := range parent.Children {
		el, ok := c.(*dom.Element)
		if !ok {
			continue
		}
		switch {
		case r.dialect.Is(el, "include"):
			if name, err := r.filename(el, interp); err == nil {
				*names = append(*names, name)
			}
		case r.dialect.Is(el, "macro"), r.dialect.Is(el, "if"), r.dialect.Is(el, "unless"):
		default:
			r.collect(el, interp, names)
		}
	}
}

func (r *Resolver) markDependency(abs string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps[abs] = true
}

func baseDir(path string) string {
	if path == "" {
		return "."
	}
	return filepath.Dir(path)
}

func withStack(err error, stack []string) error {
	if xe, ok := xacroErrors.As(err); ok {
		xe.WithIncludeStack(stack)
	}
	return err
}
