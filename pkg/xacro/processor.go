package xacro

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/xacro/pkg/cache"
	"mercator-hq/xacro/pkg/config"
	"mercator-hq/xacro/pkg/source"
	"mercator-hq/xacro/pkg/telemetry/logging"
	"mercator-hq/xacro/pkg/telemetry/metrics"
	"mercator-hq/xacro/pkg/telemetry/tracing"
	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
	"mercator-hq/xacro/pkg/xacro/expander"
	"mercator-hq/xacro/pkg/xacro/include"
	"mercator-hq/xacro/pkg/xacro/parser"
	"mercator-hq/xacro/pkg/xacro/serializer"
)

// Result is the outcome of one successful expansion.
type Result struct {
	// Document is the expanded tree.
	Document *dom.Document

	// Output is the serialized document.
	Output string

	// Stats describes the expansion. It is zero for cached results.
	Stats expander.Stats

	// Dependencies are the canonical paths of every file read, the root
	// document first.
	Dependencies []string

	// RunID identifies this expansion in logs, traces and the cache.
	RunID string

	// Cached is true when Output came from the result cache.
	Cached bool
}

// Processor runs the expansion pipeline. It is safe for concurrent use;
// every call gets its own resolver and expander.
type Processor struct {
	config    *config.Config
	reader    source.Reader
	logger    *logging.Logger
	metrics   *metrics.Collector
	tracer    *tracing.Tracer
	cache     *cache.Cache
	lookupEnv func(string) (string, bool)
}

// Option configures a Processor.
type Option func(*Processor)

// WithConfig sets the configuration. Defaults are applied to a copy.
func WithConfig(cfg *config.Config) Option {
	return func(p *Processor) {
		if cfg == nil {
			return
		}
		c := *cfg
		config.ApplyDefaults(&c)
		p.config = &c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records pipeline metrics on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Processor) {
		p.metrics = collector
	}
}

// WithTracer creates spans for each pipeline stage.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(p *Processor) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// WithCache serves repeated expansions from c. The cache must validate
// dependencies through the same reader as the processor.
func WithCache(c *cache.Cache) Option {
	return func(p *Processor) {
		p.cache = c
	}
}

// WithReader sets where documents are read from (default: the local
// filesystem).
func WithReader(reader source.Reader) Option {
	return func(p *Processor) {
		if reader != nil {
			p.reader = reader
		}
	}
}

// WithLookupEnv overrides environment lookup for $(env) and $(optenv).
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(p *Processor) {
		p.lookupEnv = lookup
	}
}

// NewProcessor creates a processor. Without options it reads from the local
// filesystem, logs through slog.Default() and uses the process configuration
// (config.GetConfig) or the defaults when none is published.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		config:    config.NewDefaultConfig(),
		reader:    source.NewOS(),
		logger:    logging.FromSlog(slog.Default()),
		tracer:    tracing.Noop(),
		lookupEnv: os.LookupEnv,
	}
	if cfg := config.GetConfig(); cfg != nil {
		WithConfig(cfg)(p)
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "processor")
	return p
}

// Reader returns the reader documents are read through.
func (p *Processor) Reader() source.Reader {
	return p.reader
}

// ExpandFile reads and expands the document at path.
func (p *Processor) ExpandFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	ctx, span, runID := p.begin(ctx, path)
	defer span.End()

	data, err := p.reader.ReadFile(ctx, path)
	if err != nil {
		return nil, p.fail(ctx, span, start, xacroErrors.Wrap(xacroErrors.KindIO, dom.Location{File: path}, err,
			"failed to read document: %v", err))
	}
	return p.expand(ctx, span, start, runID, data, path, p.reader.Abs(path))
}

// ExpandBytes expands a document held in memory. name is used in locations
// and as the base for relative includes; it may be empty.
func (p *Processor) ExpandBytes(ctx context.Context, data []byte, name string) (*Result, error) {
	start := time.Now()
	ctx, span, runID := p.begin(ctx, name)
	defer span.End()

	return p.expand(ctx, span, start, runID, data, name, "")
}

func (p *Processor) begin(ctx context.Context, path string) (context.Context, trace.Span, string) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithFile(ctx, path)

	ctx, span := p.tracer.Start(ctx, tracing.SpanExpand)
	tracing.SetDocumentAttributes(span, path, runID)
	if traceID := tracing.TraceID(ctx); traceID != "" {
		ctx = logging.WithTraceID(ctx, traceID)
	}
	return ctx, span, runID
}

// expand runs the pipeline on data. root is the canonical path of the
// document when it was read through the reader.
func (p *Processor) expand(ctx context.Context, span trace.Span, start time.Time, runID string, data []byte, path, root string) (*Result, error) {
	var key string
	if p.cache != nil {
		key = cache.Key(path, data, p.fingerprint())
		if result, ok := p.lookup(ctx, key, path, runID); ok {
			p.metrics.RecordExpansion(metrics.StatusCached, time.Since(start), 0, 0, 0)
			p.logger.InfoContext(ctx, "expansion served from cache", logging.Since(start))
			return result, nil
		}
	}

	docParser := parser.NewParser().WithMaxFileSize(p.config.Expansion.MaxFileSize)

	_, parseSpan := p.tracer.Start(ctx, tracing.SpanParse)
	doc, err := docParser.Parse(data, path)
	parseSpan.End()
	if err != nil {
		return nil, p.fail(ctx, span, start, err)
	}

	reads := source.NewRecorder(p.reader)
	env := newEnvRecorder(p.lookupEnv)

	resolver := include.NewResolver(reads,
		include.WithSearchPaths(p.config.Include.SearchPaths...),
		include.WithLenient(p.config.Include.Lenient),
		include.WithConcurrency(p.config.Include.Concurrency),
		include.WithParser(docParser),
		include.WithLogger(p.logger.WithContext(ctx).Slog()),
	)
	exp := expander.New(reads, resolver, p.expanderOptions(env.LookupEnv), p.logger.WithContext(ctx).Slog())

	expandCtx, expandSpan := p.tracer.Start(ctx, tracing.SpanExpandMacros)
	stats, err := exp.Expand(expandCtx, doc)
	tracing.SetExpansionAttributes(expandSpan, stats.MacroInvocations, stats.Includes, stats.MaxDepth)
	expandSpan.End()
	if err != nil {
		return nil, p.fail(ctx, span, start, err)
	}

	_, serializeSpan := p.tracer.Start(ctx, tracing.SpanSerialize)
	output := serializer.Serialize(doc, serializer.Options{
		XMLDeclaration: p.config.Output.XMLDeclaration,
		Indent:         p.config.Output.Indent,
	})
	tracing.SetOutputAttributes(serializeSpan, len(output))
	serializeSpan.End()

	deps := resolver.Dependencies()
	if root != "" {
		deps = append([]string{root}, without(deps, root)...)
	}

	if p.cache != nil && root != "" {
		inputs := cache.Inputs{
			Files:   append([]string{root}, without(reads.Found(), root)...),
			Missing: reads.Missing(),
			Env:     env.Vars(),
		}
		if err := p.cache.Save(ctx, key, path, output, runID, inputs); err != nil {
			p.logger.WarnContext(ctx, "failed to cache expansion", "error", err)
		}
	}

	tracing.SetExpansionAttributes(span, stats.MacroInvocations, stats.Includes, stats.MaxDepth)
	tracing.SetStatus(span, nil)
	p.metrics.RecordExpansion(metrics.StatusSuccess, time.Since(start), stats.MacroInvocations, stats.Includes, stats.MaxDepth)
	p.logger.InfoContext(ctx, "expansion completed",
		"macro_invocations", stats.MacroInvocations,
		"includes", stats.Includes,
		"max_depth", stats.MaxDepth,
		"output_bytes", len(output),
		logging.Since(start),
	)

	return &Result{
		Document:     doc,
		Output:       output,
		Stats:        stats,
		Dependencies: deps,
		RunID:        runID,
	}, nil
}

// lookup serves a cached result. The document is re-parsed from the cached
// output so Result.Document is always set.
func (p *Processor) lookup(ctx context.Context, key, path, runID string) (*Result, bool) {
	ctx, span := p.tracer.Start(ctx, tracing.SpanCacheLookup)
	defer span.End()

	entry, ok := p.cache.Lookup(ctx, key, p.lookupEnv)
	tracing.SetCacheAttributes(span, ok)
	if !ok {
		return nil, false
	}

	doc, err := parser.NewParser().WithMaxFileSize(0).Parse([]byte(entry.Output), path)
	if err != nil {
		p.logger.WarnContext(ctx, "cached output does not parse, expanding again", "error", err)
		return nil, false
	}
	return &Result{
		Document:     doc,
		Output:       entry.Output,
		Dependencies: entry.DependencyPaths(),
		RunID:        runID,
		Cached:       true,
	}, true
}

// fail records err and returns it unchanged.
func (p *Processor) fail(ctx context.Context, span trace.Span, start time.Time, err error) error {
	kind := string(xacroErrors.KindOf(err))
	tracing.SetErrorAttributes(span, err, kind)
	p.metrics.RecordError(kind)
	p.metrics.RecordExpansion(metrics.StatusError, time.Since(start), 0, 0, 0)

	attrs := []any{"kind", kind, "error", err, logging.Since(start)}
	if xe, ok := xacroErrors.As(err); ok {
		attrs = append(attrs, "location", xe.Location.String())
		if len(xe.MacroStack) > 0 {
			attrs = append(attrs, "macro_stack", strings.Join(xe.MacroStack, " > "))
		}
	}
	p.logger.ErrorContext(ctx, "expansion failed", attrs...)
	return err
}

func (p *Processor) expanderOptions(lookupEnv func(string) (string, bool)) expander.Options {
	exp := p.config.Expansion
	opts := expander.DefaultOptions()
	opts.StrictArguments = !exp.LenientArguments
	opts.MaxRecursionDepth = exp.MaxRecursionDepth
	opts.FalseBranchProperties = exp.FalseBranchProperties
	opts.Args = exp.Args
	opts.Packages = exp.Packages
	opts.PackagePaths = exp.PackagePaths
	opts.LookupEnv = lookupEnv
	return opts
}

// fingerprint covers every setting that changes the output of a document.
func (p *Processor) fingerprint() string {
	cfg := p.config
	fields := map[string]string{
		"strict":        strconv.FormatBool(!cfg.Expansion.LenientArguments),
		"max_depth":     strconv.Itoa(cfg.Expansion.MaxRecursionDepth),
		"false_branch":  cfg.Expansion.FalseBranchProperties,
		"search_paths":  strings.Join(cfg.Include.SearchPaths, string(filepath.ListSeparator)),
		"lenient_inc":   strconv.FormatBool(cfg.Include.Lenient),
		"package_paths": strings.Join(cfg.Expansion.PackagePaths, string(filepath.ListSeparator)),
		"xml_decl":      strconv.FormatBool(cfg.Output.XMLDeclaration),
		"indent":        cfg.Output.Indent,
	}
	for name, value := range cfg.Expansion.Args {
		fields["arg."+name] = value
	}
	for name, dir := range cfg.Expansion.Packages {
		fields["pkg."+name] = dir
	}
	return cache.Fingerprint(fields)
}

func without(paths []string, drop string) []string {
	out := paths[:0:0]
	for _, p := range paths {
		if p != drop {
			out = append(out, p)
		}
	}
	return out
}
