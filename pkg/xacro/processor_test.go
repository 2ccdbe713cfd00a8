package xacro

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/xacro/pkg/cache"
	"mercator-hq/xacro/pkg/config"
	"mercator-hq/xacro/pkg/source"
	"mercator-hq/xacro/pkg/telemetry/logging"
	"mercator-hq/xacro/pkg/telemetry/metrics"
	"mercator-hq/xacro/pkg/telemetry/tracing"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

const xmlns = `xmlns:xacro="http://www.ros.org/wiki/xacro"`

func robot(body string) string {
	return `<robot ` + xmlns + `>` + body + `</robot>`
}

func testFiles() *source.Memory {
	return source.NewMemory(map[string]string{
		"robot.xacro": robot(`<xacro:include filename="parts/arm.xacro"/><xacro:arm name="left"/><xacro:arm name="right"/>`),
		"parts/arm.xacro": robot(`<xacro:property name="len" value="0.5"/>` +
			`<xacro:macro name="arm" params="name"><link name="${name}_arm" length="${len*2}"/></xacro:macro>`),
		"broken.xacro": robot(`<xacro:arms name="x"/><xacro:macro name="arm" params="name"/>`),
	})
}

func testLogger(buf *bytes.Buffer) *logging.Logger {
	l, _ := logging.New(logging.Config{Level: "debug", Format: "json", Writer: buf})
	return l
}

func TestProcessor_ExpandFile(t *testing.T) {
	files := testFiles()
	p := NewProcessor(WithReader(files), WithLogger(logging.Discard()))

	result, err := p.ExpandFile(context.Background(), "robot.xacro")
	if err != nil {
		t.Fatalf("ExpandFile() error = %v", err)
	}

	for _, want := range []string{`<link name="left_arm" length="1.0"/>`, `<link name="right_arm" length="1.0"/>`} {
		if !strings.Contains(result.Output, want) {
			t.Errorf("Output = %q, want it to contain %q", result.Output, want)
		}
	}
	if strings.Contains(result.Output, "<xacro:") {
		t.Errorf("Output still contains directives: %q", result.Output)
	}
	if result.Document == nil || result.Document.Root.Name != "robot" {
		t.Errorf("Document root = %v, want robot", result.Document)
	}
	if diff := cmp.Diff([]string{"robot.xacro", "parts/arm.xacro"}, result.Dependencies); diff != "" {
		t.Errorf("Dependencies mismatch (-want +got):\n%s", diff)
	}
	if result.Stats.MacroInvocations != 2 || result.Stats.Includes != 1 {
		t.Errorf("Stats = %+v, want 2 invocations and 1 include", result.Stats)
	}
	if result.RunID == "" || result.Cached {
		t.Errorf("RunID = %q, Cached = %v", result.RunID, result.Cached)
	}
}

func TestProcessor_ErrorReturnsNoOutput(t *testing.T) {
	p := NewProcessor(WithReader(testFiles()), WithLogger(logging.Discard()))

	result, err := p.ExpandFile(context.Background(), "broken.xacro")
	if result != nil {
		t.Errorf("ExpandFile() result = %+v, want nil on error", result)
	}
	if !errors.Is(err, xacroErrors.ErrUnknownMacro) {
		t.Fatalf("ExpandFile() error = %v, want unknown macro", err)
	}
	if !strings.Contains(err.Error(), "Did you mean 'arm'?") {
		t.Errorf("error lacks suggestion:\n%v", err)
	}

	_, err = p.ExpandFile(context.Background(), "missing.xacro")
	if !errors.Is(err, xacroErrors.ErrIO) || !errors.Is(err, source.ErrNotFound) {
		t.Errorf("ExpandFile(missing) error = %v, want io error wrapping not found", err)
	}
}

func TestProcessor_ExpandBytes(t *testing.T) {
	p := NewProcessor(WithReader(testFiles()), WithLogger(logging.Discard()))

	result, err := p.ExpandBytes(context.Background(),
		[]byte(robot(`<xacro:include filename="parts/arm.xacro"/><xacro:arm name="solo"/>`)), "inline.xacro")
	if err != nil {
		t.Fatalf("ExpandBytes() error = %v", err)
	}
	if !strings.Contains(result.Output, `<link name="solo_arm" length="1.0"/>`) {
		t.Errorf("Output = %q", result.Output)
	}
	if diff := cmp.Diff([]string{"parts/arm.xacro"}, result.Dependencies); diff != "" {
		t.Errorf("Dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessor_Config(t *testing.T) {
	files := source.NewMemory(map[string]string{
		"robot.xacro": robot(`<xacro:arg name="mass" default="1"/><link mass="$(arg mass)"/>` +
			`<xacro:macro name="m" params="a"><x a="${a}"/></xacro:macro><xacro:m a="1" extra="2"/>`),
	})

	cfg := config.NewDefaultConfig()
	cfg.Expansion.Args = map[string]string{"mass": "7"}
	cfg.Expansion.LenientArguments = true
	cfg.Output.XMLDeclaration = true

	result, err := NewProcessor(WithReader(files), WithConfig(cfg), WithLogger(logging.Discard())).
		ExpandFile(context.Background(), "robot.xacro")
	if err != nil {
		t.Fatalf("ExpandFile() error = %v", err)
	}
	if !strings.HasPrefix(result.Output, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Errorf("Output lacks XML declaration: %q", result.Output)
	}
	if !strings.Contains(result.Output, `<link mass="7"/>`) {
		t.Errorf("arg override not applied: %q", result.Output)
	}

	cfg.Expansion.LenientArguments = false
	_, err = NewProcessor(WithReader(files), WithConfig(cfg), WithLogger(logging.Discard())).
		ExpandFile(context.Background(), "robot.xacro")
	if !errors.Is(err, xacroErrors.ErrUnknownArgument) {
		t.Errorf("strict ExpandFile() error = %v, want unknown argument", err)
	}
}

func TestProcessor_Cache(t *testing.T) {
	files := testFiles()
	store := cache.NewMemoryStore()
	p := NewProcessor(
		WithReader(files),
		WithLogger(logging.Discard()),
		WithCache(cache.New(store, files, nil, nil)),
	)
	ctx := context.Background()

	first, err := p.ExpandFile(ctx, "robot.xacro")
	if err != nil {
		t.Fatalf("ExpandFile() error = %v", err)
	}
	if first.Cached {
		t.Error("first expansion reported as cached")
	}

	second, err := p.ExpandFile(ctx, "robot.xacro")
	if err != nil {
		t.Fatalf("ExpandFile() error = %v", err)
	}
	if !second.Cached {
		t.Error("second expansion not served from cache")
	}
	if second.Output != first.Output {
		t.Errorf("cached Output = %q, want %q", second.Output, first.Output)
	}
	if second.RunID == first.RunID {
		t.Error("cached result reused the previous run ID")
	}
	if second.Document == nil {
		t.Error("cached result has no Document")
	}

	files.Set("parts/arm.xacro", robot(`<xacro:macro name="arm" params="name"><link name="${name}"/></xacro:macro>`))
	third, err := p.ExpandFile(ctx, "robot.xacro")
	if err != nil {
		t.Fatalf("ExpandFile() error = %v", err)
	}
	if third.Cached {
		t.Error("expansion served from cache after an included file changed")
	}
	if !strings.Contains(third.Output, `<link name="left"/>`) {
		t.Errorf("Output = %q", third.Output)
	}
}

func TestProcessor_CacheTracksEnvAndMissingFiles(t *testing.T) {
	ctx := context.Background()

	newProcessor := func(files *source.Memory, env map[string]string) *Processor {
		cfg := config.NewDefaultConfig()
		cfg.Include.Lenient = true
		return NewProcessor(
			WithConfig(cfg),
			WithReader(files),
			WithLogger(logging.Discard()),
			WithCache(cache.New(cache.NewMemoryStore(), files, nil, nil)),
			WithLookupEnv(func(name string) (string, bool) {
				v, ok := env[name]
				return v, ok
			}),
		)
	}

	tests := []struct {
		name       string
		files      map[string]string
		env        map[string]string
		change     func(files *source.Memory, env map[string]string)
		wantBefore string
		wantAfter  string
	}{
		{
			name:       "optenv value",
			files:      map[string]string{"robot.xacro": robot(`<link name="$(optenv ROBOT_NAME default)"/>`)},
			env:        map[string]string{"ROBOT_NAME": "alpha"},
			change:     func(_ *source.Memory, env map[string]string) { env["ROBOT_NAME"] = "beta" },
			wantBefore: `<link name="alpha"/>`,
			wantAfter:  `<link name="beta"/>`,
		},
		{
			name:       "optenv becomes set",
			files:      map[string]string{"robot.xacro": robot(`<link name="$(optenv ROBOT_NAME default)"/>`)},
			env:        map[string]string{},
			change:     func(_ *source.Memory, env map[string]string) { env["ROBOT_NAME"] = "beta" },
			wantBefore: `<link name="default"/>`,
			wantAfter:  `<link name="beta"/>`,
		},
		{
			name: "find picks up an earlier package path",
			files: map[string]string{
				"robot.xacro":                      robot(`<mesh dir="$(find arm_description)"/>`),
				"/ws2/arm_description/package.xml": `<package/>`,
			},
			env: map[string]string{"ROS_PACKAGE_PATH": "/ws1:/ws2"},
			change: func(files *source.Memory, _ map[string]string) {
				files.Set("/ws1/arm_description/package.xml", `<package/>`)
			},
			wantBefore: `<mesh dir="/ws2/arm_description"/>`,
			wantAfter:  `<mesh dir="/ws1/arm_description"/>`,
		},
		{
			name: "find follows ROS_PACKAGE_PATH",
			files: map[string]string{
				"robot.xacro":                      robot(`<mesh dir="$(find arm_description)"/>`),
				"/ws1/arm_description/package.xml": `<package/>`,
				"/ws2/arm_description/package.xml": `<package/>`,
			},
			env:        map[string]string{"ROS_PACKAGE_PATH": "/ws1:/ws2"},
			change:     func(_ *source.Memory, env map[string]string) { env["ROS_PACKAGE_PATH"] = "/ws2" },
			wantBefore: `<mesh dir="/ws1/arm_description"/>`,
			wantAfter:  `<mesh dir="/ws2/arm_description"/>`,
		},
		{
			name: "skipped include created",
			files: map[string]string{
				"robot.xacro": robot(`<xacro:include filename="optional.xacro"/><base/>`),
			},
			env: map[string]string{},
			change: func(files *source.Memory, _ map[string]string) {
				files.Set("optional.xacro", robot(`<extra/>`))
			},
			wantBefore: `<base/>`,
			wantAfter:  `<extra/><base/>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := source.NewMemory(tt.files)
			p := newProcessor(files, tt.env)

			for i, wantCached := range []bool{false, true} {
				result, err := p.ExpandFile(ctx, "robot.xacro")
				if err != nil {
					t.Fatalf("ExpandFile() #%d error = %v", i+1, err)
				}
				if result.Cached != wantCached {
					t.Errorf("ExpandFile() #%d Cached = %v, want %v", i+1, result.Cached, wantCached)
				}
				if !strings.Contains(result.Output, tt.wantBefore) {
					t.Errorf("ExpandFile() #%d Output = %q, want %q", i+1, result.Output, tt.wantBefore)
				}
			}

			tt.change(files, tt.env)
			result, err := p.ExpandFile(ctx, "robot.xacro")
			if err != nil {
				t.Fatalf("ExpandFile() after change error = %v", err)
			}
			if result.Cached {
				t.Error("expansion served from cache after an input changed")
			}
			if !strings.Contains(result.Output, tt.wantAfter) {
				t.Errorf("Output = %q, want %q", result.Output, tt.wantAfter)
			}
		})
	}
}

func TestProcessor_Telemetry(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, registry)

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(&config.TracingConfig{Enabled: true, Sampler: "always"}, exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	var logs bytes.Buffer
	p := NewProcessor(
		WithReader(testFiles()),
		WithLogger(testLogger(&logs)),
		WithMetrics(collector),
		WithTracer(tracer),
	)
	ctx := context.Background()

	result, err := p.ExpandFile(ctx, "robot.xacro")
	if err != nil {
		t.Fatalf("ExpandFile() error = %v", err)
	}
	if _, err := p.ExpandFile(ctx, "broken.xacro"); err == nil {
		t.Fatal("ExpandFile(broken) succeeded")
	}

	expected := `
# HELP xacro_processor_expansions_total Total number of document expansions
# TYPE xacro_processor_expansions_total counter
xacro_processor_expansions_total{status="error"} 1
xacro_processor_expansions_total{status="success"} 1
# HELP xacro_processor_errors_total Total number of failed expansions by error kind
# TYPE xacro_processor_errors_total counter
xacro_processor_errors_total{kind="unknown_macro"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"xacro_processor_expansions_total", "xacro_processor_errors_total"); err != nil {
		t.Errorf("metrics mismatch: %v", err)
	}

	if err := tracer.ForceFlush(ctx); err != nil {
		t.Fatalf("ForceFlush() error = %v", err)
	}
	names := map[string]int{}
	for _, span := range exporter.GetSpans() {
		names[span.Name]++
	}
	for _, want := range []string{tracing.SpanExpand, tracing.SpanParse, tracing.SpanExpandMacros, tracing.SpanSerialize} {
		if names[want] == 0 {
			t.Errorf("no %q span recorded (got %v)", want, names)
		}
	}

	if !strings.Contains(logs.String(), `"run_id":"`+result.RunID+`"`) {
		t.Errorf("logs lack run_id %s:\n%s", result.RunID, logs.String())
	}
	if !strings.Contains(logs.String(), `"kind":"unknown_macro"`) {
		t.Errorf("failure log lacks kind:\n%s", logs.String())
	}
}

func TestExpandString(t *testing.T) {
	out, err := ExpandString(context.Background(),
		robot(`<xacro:property name="r" value="2"/><c r="${r*r}"/>`))
	if err != nil {
		t.Fatalf("ExpandString() error = %v", err)
	}
	if !strings.Contains(out, `<c r="4"/>`) {
		t.Errorf("ExpandString() = %q", out)
	}

	if _, err := ExpandString(context.Background(), `<robot><unclosed></robot>`); !errors.Is(err, xacroErrors.ErrSyntax) {
		t.Errorf("ExpandString(malformed) error = %v, want syntax error", err)
	}
}
