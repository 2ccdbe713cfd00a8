package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/xacro/pkg/cli"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

func lintFixtures() map[string]string {
	return map[string]string{
		"good.xacro":       `<robot ` + xmlns + `><xacro:property name="w" value="2"/><box w="${w}"/></robot>`,
		"nested/ok.xacro":  `<robot ` + xmlns + `><link name="a"/></robot>`,
		"bad_syntax.xacro": `<robot ` + xmlns + `><link></robot>`,
		"bad_macro.xacro":  `<robot ` + xmlns + `><xacro:macro name="leg" params="side"><l s="${side}"/></xacro:macro><xacro:leg/></robot>`,
		".hidden/x.xacro":  `<robot`,
		"notes.txt":        `not a document`,
	}
}

func TestLintCommand_Text(t *testing.T) {
	dir := workspace(t, lintFixtures())

	stdout, _, err := execute(t, "lint", "--dir", dir)
	if err == nil {
		t.Fatal("lint succeeded with failing documents")
	}
	if got := cli.ExitCode(err); got != cli.ExitExpansion {
		t.Errorf("ExitCode() = %d, want %d", got, cli.ExitExpansion)
	}

	var list *xacroErrors.ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("error %v does not carry an ErrorList", err)
	}
	if list.Count() != 2 {
		t.Errorf("ErrorList.Count() = %d, want 2", list.Count())
	}
	if len(list.ByKind(xacroErrors.KindSyntax)) != 1 {
		t.Errorf("syntax errors = %d, want 1", len(list.ByKind(xacroErrors.KindSyntax)))
	}
	if len(list.ByKind(xacroErrors.KindMissingArgument)) != 1 {
		t.Errorf("missing argument errors = %d, want 1", len(list.ByKind(xacroErrors.KindMissingArgument)))
	}

	for _, want := range []string{
		"✓ " + filepath.Join(dir, "good.xacro"),
		"✓ " + filepath.Join(dir, "nested", "ok.xacro"),
		"✗ " + filepath.Join(dir, "bad_syntax.xacro"),
		"[missing_argument]",
		"4 file(s) checked, 2 failed",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report lacks %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, ".hidden") {
		t.Errorf("hidden directory was linted:\n%s", stdout)
	}
}

func TestLintCommand_JSON(t *testing.T) {
	dir := workspace(t, lintFixtures())

	stdout, _, err := execute(t, "lint", filepath.Join(dir, "good.xacro"), filepath.Join(dir, "bad_macro.xacro"), "--format", "json")
	if err == nil {
		t.Fatal("lint succeeded with a failing document")
	}

	var report LintReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, stdout)
	}
	if report.Files != 2 || report.Failed != 1 {
		t.Errorf("report = %d files, %d failed, want 2, 1", report.Files, report.Failed)
	}
	if len(report.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(report.Results))
	}
	if !report.Results[0].Valid {
		t.Errorf("good.xacro reported invalid: %+v", report.Results[0])
	}
	bad := report.Results[1]
	if bad.Valid || bad.Kind != string(xacroErrors.KindMissingArgument) {
		t.Errorf("bad_macro.xacro = %+v, want missing_argument", bad)
	}
	if !strings.Contains(bad.Message, `"leg"`) || !strings.Contains(bad.Message, `"side"`) {
		t.Errorf("Message = %q, want macro and parameter named", bad.Message)
	}
	if bad.Line != 1 {
		t.Errorf("Line = %d, want 1", bad.Line)
	}
}

func TestLintCommand_CSV(t *testing.T) {
	dir := workspace(t, lintFixtures())

	stdout, _, err := execute(t, "lint", filepath.Join(dir, "good.xacro"), "--format", "csv")
	if err != nil {
		t.Fatalf("lint error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	if err != nil {
		t.Fatalf("report is not CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0][0] != "file" || records[1][1] != "true" {
		t.Errorf("records = %v", records)
	}
}

func TestLintCommand_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no documents", []string{"lint"}},
		{"bad format", []string{"lint", "x.xacro", "--format", "yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workspace(t, nil)
			_, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("lint succeeded")
			}
			if got := cli.ExitCode(err); got != cli.ExitUsage {
				t.Errorf("ExitCode() = %d, want %d (%v)", got, cli.ExitUsage, err)
			}
		})
	}
}
