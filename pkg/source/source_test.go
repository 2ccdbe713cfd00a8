package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOS_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "robot.xacro")
	if err := os.WriteFile(path, []byte("<robot/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewOS()
	data, err := r.ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "<robot/>" {
		t.Errorf("ReadFile() = %q, want %q", data, "<robot/>")
	}

	_, err = r.ReadFile(context.Background(), filepath.Join(dir, "missing.xacro"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want ErrNotFound", err)
	}
}

func TestOS_ReadFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewOS().ReadFile(ctx, "whatever"); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadFile() error = %v, want context.Canceled", err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory(map[string]string{"a/b.xacro": "<b/>"})

	data, err := m.ReadFile(context.Background(), "a/./b.xacro")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "<b/>" {
		t.Errorf("ReadFile() = %q, want %q", data, "<b/>")
	}

	// Returned slices are copies.
	data[0] = 'X'
	again, _ := m.ReadFile(context.Background(), "a/b.xacro")
	if string(again) != "<b/>" {
		t.Errorf("stored content mutated: %q", again)
	}

	m.Set("c.xacro", "<c/>")
	if got := m.Paths(); len(got) != 2 || got[0] != "a/b.xacro" || got[1] != "c.xacro" {
		t.Errorf("Paths() = %v", got)
	}

	if _, err := m.ReadFile(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile(nope) error = %v, want ErrNotFound", err)
	}
}

func TestRecorder(t *testing.T) {
	mem := NewMemory(map[string]string{
		"/robot/a.xacro": "<a/>",
		"/robot/b.xacro": "<b/>",
	})
	r := NewRecorder(mem)
	ctx := context.Background()

	for _, path := range []string{"/robot/b.xacro", "/robot/a.xacro", "/robot/a.xacro"} {
		if _, err := r.ReadFile(ctx, path); err != nil {
			t.Fatalf("ReadFile(%q) error = %v", path, err)
		}
	}
	for _, path := range []string{"/robot/c.xacro", "/search/a.xacro"} {
		if _, err := r.ReadFile(ctx, path); !errors.Is(err, ErrNotFound) {
			t.Fatalf("ReadFile(%q) error = %v, want ErrNotFound", path, err)
		}
	}

	found := r.Found()
	if len(found) != 2 || found[0] != "/robot/a.xacro" || found[1] != "/robot/b.xacro" {
		t.Errorf("Found() = %v, want [/robot/a.xacro /robot/b.xacro]", found)
	}
	missing := r.Missing()
	if len(missing) != 2 || missing[0] != "/robot/c.xacro" || missing[1] != "/search/a.xacro" {
		t.Errorf("Missing() = %v, want [/robot/c.xacro /search/a.xacro]", missing)
	}

	mem.Set("/robot/c.xacro", "<c/>")
	if _, err := r.ReadFile(ctx, "/robot/c.xacro"); err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if missing := r.Missing(); len(missing) != 1 || missing[0] != "/search/a.xacro" {
		t.Errorf("Missing() after the file appeared = %v, want [/search/a.xacro]", missing)
	}
}
