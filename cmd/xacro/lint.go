package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/xacro/pkg/cli"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

var lintFlags struct {
	expansionFlags
	dir      string
	format   string
	progress bool
}

var lintCmd = &cobra.Command{
	Use:   "lint [FILE...]",
	Short: "Check that documents expand",
	Long: `Expand each document and report every failure.

Lint does not stop at the first failing document: every file is expanded and
the report lists the error kind, location and macro stack of each failure.
The exit status is non-zero when any document fails.

Examples:
  # Lint files
  xacro lint robot.urdf.xacro arm.urdf.xacro

  # Lint every *.xacro file under a directory
  xacro lint --dir descriptions/

  # JSON output for CI
  xacro lint --dir descriptions/ --format json`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	addExpansionFlags(lintCmd, &lintFlags.expansionFlags)
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "lint every *.xacro file under this directory")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json, csv")
	lintCmd.Flags().BoolVar(&lintFlags.progress, "progress", false, "show a progress bar on stderr")
}

// LintResult is the outcome of one document.
type LintResult struct {
	File       string   `json:"file"`
	Valid      bool     `json:"valid"`
	Kind       string   `json:"kind,omitempty"`
	Message    string   `json:"message,omitempty"`
	Line       int      `json:"line,omitempty"`
	Column     int      `json:"column,omitempty"`
	MacroStack []string `json:"macro_stack,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	DurationMS float64  `json:"duration_ms"`
}

// LintReport is the outcome of a lint run.
type LintReport struct {
	Files   int          `json:"files"`
	Failed  int          `json:"failed"`
	Results []LintResult `json:"results"`
}

// String renders the report as text.
func (r LintReport) String() string {
	var sb strings.Builder
	for _, res := range r.Results {
		if res.Valid {
			fmt.Fprintf(&sb, "✓ %s\n", res.File)
			continue
		}
		fmt.Fprintf(&sb, "✗ %s", res.File)
		if res.Line > 0 {
			fmt.Fprintf(&sb, ":%d:%d", res.Line, res.Column)
		}
		fmt.Fprintf(&sb, " [%s] %s\n", res.Kind, res.Message)
		if len(res.MacroStack) > 0 {
			fmt.Fprintf(&sb, "    macro stack: %s\n", strings.Join(res.MacroStack, " > "))
		}
		if res.Suggestion != "" {
			fmt.Fprintf(&sb, "    %s\n", res.Suggestion)
		}
	}
	fmt.Fprintf(&sb, "\n%d file(s) checked, %d failed", r.Files, r.Failed)
	return sb.String()
}

// Header implements cli.Tabular.
func (r LintReport) Header() []string {
	return []string{"file", "valid", "kind", "line", "column", "message", "macro_stack"}
}

// Rows implements cli.Tabular.
func (r LintReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		rows = append(rows, []string{
			res.File,
			strconv.FormatBool(res.Valid),
			res.Kind,
			strconv.Itoa(res.Line),
			strconv.Itoa(res.Column),
			res.Message,
			strings.Join(res.MacroStack, " > "),
		})
	}
	return rows
}

func runLint(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(lintFlags.format)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}

	files, err := lintFiles(args, lintFlags.dir)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}

	a, err := newApp(cmd, &lintFlags.expansionFlags)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}
	defer a.close()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	proc := a.processor()
	errs := xacroErrors.NewErrorList()
	report := LintReport{Files: len(files), Results: make([]LintResult, 0, len(files))}

	var progress cli.ProgressReporter
	if lintFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
		progress.Start(len(files))
	}

	for _, file := range files {
		if ctx.Err() != nil {
			return cli.NewCommandError("lint", ctx.Err())
		}

		start := time.Now()
		_, err := proc.ExpandFile(ctx, file)
		res := LintResult{
			File:       file,
			Valid:      err == nil,
			DurationMS: float64(time.Since(start).Microseconds()) / 1000,
		}
		if err != nil {
			errs.Add(err)
			report.Failed++
			describe(&res, err)
		}
		report.Results = append(report.Results, res)

		if progress != nil {
			progress.Done(file, err)
		}
	}
	if progress != nil {
		progress.Finish()
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return cli.NewCommandError("lint", err)
	}
	if err := errs.ToError(); err != nil {
		return cli.NewCommandError("lint", fmt.Errorf("%d of %d document(s) failed: %w", report.Failed, report.Files, err))
	}
	return nil
}

// describe copies the details of err into res.
func describe(res *LintResult, err error) {
	xe, ok := xacroErrors.As(err)
	if !ok {
		res.Kind = string(xacroErrors.KindIO)
		res.Message = err.Error()
		return
	}
	res.Kind = string(xe.Kind)
	res.Message = xe.Message
	res.Line = xe.Location.Line
	res.Column = xe.Location.Column
	res.MacroStack = xe.MacroStack
	res.Suggestion = xe.Suggestion
}

// lintFiles returns the files named on the command line followed by every
// *.xacro file under dir, sorted.
func lintFiles(args []string, dir string) ([]string, error) {
	files := append([]string(nil), args...)

	if dir != "" {
		var found []string
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".xacro") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}

	if len(files) == 0 {
		return nil, cli.NewConfigError("lint", "no documents given (pass files or --dir)")
	}
	return files, nil
}
