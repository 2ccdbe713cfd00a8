package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/xacro/pkg/cli"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

func robotFiles() map[string]string {
	return map[string]string{
		"robot.xacro": `<robot ` + xmlns + ` name="r">` +
			`<xacro:arg name="prefix" default="base_"/>` +
			`<xacro:include filename="parts/link.xacro"/>` +
			`<xacro:link name="$(arg prefix)arm"/>` +
			`</robot>`,
		"parts/link.xacro": `<robot ` + xmlns + `>` +
			`<xacro:macro name="link" params="name length:=1.0"><link name="${name}" length="${length}"/></xacro:macro>` +
			`</robot>`,
		"broken.xacro": `<robot ` + xmlns + `><xacro:lnk name="x"/>` +
			`<xacro:macro name="link" params="name"/></robot>`,
	}
}

func TestExpandCommand(t *testing.T) {
	dir := workspace(t, robotFiles())

	stdout, _, err := execute(t, "expand", filepath.Join(dir, "robot.xacro"))
	if err != nil {
		t.Fatalf("expand error = %v", err)
	}
	if !strings.Contains(stdout, `<link name="base_arm" length="1.0"/>`) {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.HasSuffix(stdout, "\n") {
		t.Error("output does not end with a newline")
	}
}

func TestExpandCommand_Flags(t *testing.T) {
	dir := workspace(t, robotFiles())
	out := filepath.Join(dir, "robot.urdf")

	_, stderr, err := execute(t, "expand", filepath.Join(dir, "robot.xacro"),
		"--arg", "prefix=left_", "--xml-declaration", "--indent", "  ", "-o", out, "--stats")
	if err != nil {
		t.Fatalf("expand error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "<?xml") {
		t.Errorf("output lacks declaration: %q", got)
	}
	if !strings.Contains(got, "\n  <link name=\"left_arm\" length=\"1.0\"/>") {
		t.Errorf("output not indented or arg not applied: %q", got)
	}
	if !strings.Contains(stderr, "1 macro invocations") {
		t.Errorf("stderr lacks stats: %q", stderr)
	}
}

func TestExpandCommand_Stdin(t *testing.T) {
	rootCmd.SetIn(strings.NewReader(`<robot ` + xmlns + `><xacro:property name="r" value="3"/><c r="${r*2}"/></robot>`))
	defer rootCmd.SetIn(nil)

	stdout, _, err := execute(t, "expand", "-")
	if err != nil {
		t.Fatalf("expand error = %v", err)
	}
	if !strings.Contains(stdout, `<c r="6"/>`) {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestExpandCommand_Errors(t *testing.T) {
	dir := workspace(t, robotFiles())

	tests := []struct {
		name     string
		args     []string
		wantKind xacroErrors.Kind
		wantExit int
	}{
		{
			name:     "unknown macro",
			args:     []string{"expand", filepath.Join(dir, "broken.xacro")},
			wantKind: xacroErrors.KindUnknownMacro,
			wantExit: cli.ExitExpansion,
		},
		{
			name:     "missing file",
			args:     []string{"expand", filepath.Join(dir, "missing.xacro")},
			wantKind: xacroErrors.KindIO,
			wantExit: cli.ExitIO,
		},
		{
			name:     "malformed arg",
			args:     []string{"expand", filepath.Join(dir, "robot.xacro"), "--arg", "prefix"},
			wantExit: cli.ExitUsage,
		},
		{
			name:     "bad false branch option",
			args:     []string{"expand", filepath.Join(dir, "robot.xacro"), "--false-branch-properties", "maybe"},
			wantExit: cli.ExitUsage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expand succeeded")
			}
			if stdout != "" {
				t.Errorf("partial output written: %q", stdout)
			}
			var cmdErr *cli.CommandError
			if !errors.As(err, &cmdErr) {
				t.Errorf("error %T is not a CommandError", err)
			}
			if tt.wantKind != "" && xacroErrors.KindOf(err) != tt.wantKind {
				t.Errorf("kind = %q, want %q", xacroErrors.KindOf(err), tt.wantKind)
			}
			if got := cli.ExitCode(err); got != tt.wantExit {
				t.Errorf("ExitCode() = %d, want %d", got, tt.wantExit)
			}
		})
	}
}

func TestExpandCommand_Cache(t *testing.T) {
	dir := workspace(t, robotFiles())
	t.Setenv("XACRO_CACHE_ENABLED", "true")
	t.Setenv("XACRO_CACHE_SQLITE_PATH", filepath.Join(dir, ".cache", "cache.db"))

	first, _, err := execute(t, "expand", filepath.Join(dir, "robot.xacro"), "--stats")
	if err != nil {
		t.Fatalf("expand error = %v", err)
	}
	second, stderr, err := execute(t, "expand", filepath.Join(dir, "robot.xacro"), "--stats")
	if err != nil {
		t.Fatalf("expand error = %v", err)
	}
	if first != second {
		t.Errorf("cached output differs:\n%q\n%q", first, second)
	}
	if !strings.Contains(stderr, "cached true") {
		t.Errorf("second run not served from cache: %q", stderr)
	}

	stdout, _, err := execute(t, "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats error = %v", err)
	}
	if !strings.Contains(stdout, "Entries: 1") {
		t.Errorf("cache stats = %q", stdout)
	}

	stdout, _, err = execute(t, "cache", "prune", "--all")
	if err != nil {
		t.Fatalf("cache prune error = %v", err)
	}
	if !strings.Contains(stdout, "Removed 1 entries") {
		t.Errorf("cache prune = %q", stdout)
	}
}
