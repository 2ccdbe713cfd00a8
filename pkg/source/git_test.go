package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	return dir, repo
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("update "+name, &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
	return hash.String()
}

func TestGit_ReadFileAtRevision(t *testing.T) {
	dir, repo := initRepo(t)
	first := commitFile(t, repo, dir, "urdf/robot.xacro", "<robot name=\"v1\"/>")
	commitFile(t, repo, dir, "urdf/robot.xacro", "<robot name=\"v2\"/>")

	old, err := NewGit(dir, first)
	if err != nil {
		t.Fatalf("NewGit() error = %v", err)
	}
	data, err := old.ReadFile(context.Background(), filepath.Join(dir, "urdf", "robot.xacro"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "<robot name=\"v1\"/>" {
		t.Errorf("ReadFile() = %q, want v1 content", data)
	}
	if old.Commit() != first {
		t.Errorf("Commit() = %s, want %s", old.Commit(), first)
	}

	head, err := NewGit(dir, "")
	if err != nil {
		t.Fatalf("NewGit(HEAD) error = %v", err)
	}
	data, err = head.ReadFile(context.Background(), filepath.Join(dir, "urdf", "robot.xacro"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "<robot name=\"v2\"/>" {
		t.Errorf("ReadFile() = %q, want v2 content", data)
	}
}

func TestGit_NotFound(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "robot.xacro", "<robot/>")

	g, err := NewGit(dir, "HEAD")
	if err != nil {
		t.Fatalf("NewGit() error = %v", err)
	}

	if _, err := g.ReadFile(context.Background(), filepath.Join(dir, "missing.xacro")); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := g.ReadFile(context.Background(), "/somewhere/else.xacro"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile(outside) error = %v, want ErrNotFound", err)
	}
}
