package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Git reads documents from the tree of a commit in a local repository, so a
// robot description can be expanded exactly as it was at that revision.
// Paths are resolved against the repository's working directory.
type Git struct {
	root     string
	revision string

	mu   sync.Mutex
	tree *object.Tree
	hash plumbing.Hash
	repo *gogit.Repository
}

// NewGit opens the repository at repoPath and resolves revision ("HEAD",
// a branch, a tag or a commit SHA).
func NewGit(repoPath, revision string) (*Git, error) {
	if revision == "" {
		revision = "HEAD"
	}

	root, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository path %q: %w", repoPath, err)
	}

	repo, err := gogit.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository %q: %w", root, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %q: %w", revision, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of commit %s: %w", hash, err)
	}

	return &Git{
		root:     root,
		revision: revision,
		tree:     tree,
		hash:     *hash,
		repo:     repo,
	}, nil
}

// Commit returns the resolved commit hash.
func (g *Git) Commit() string {
	return g.hash.String()
}

// ReadFile implements Reader.
func (g *Git) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := g.relative(path)
	if err != nil {
		return nil, err
	}

	// object.Tree is not safe for concurrent lookups.
	g.mu.Lock()
	defer g.mu.Unlock()

	file, err := g.tree.File(rel)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, rel, g.revision)
		}
		return nil, fmt.Errorf("failed to look up %q at %s: %w", rel, g.revision, err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %q at %s: %w", rel, g.revision, err)
	}
	return []byte(contents), nil
}

// Abs implements Reader.
func (g *Git) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(g.root, path)
}

// relative converts path into a slash-separated path inside the repository.
func (g *Git) relative(path string) (string, error) {
	abs := g.Abs(path)
	rel, err := filepath.Rel(g.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside repository %s", ErrNotFound, path, g.root)
	}
	return filepath.ToSlash(rel), nil
}
