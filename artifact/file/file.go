// Package file provides a core.DocumentStore that keeps uploaded documents on
// the local filesystem, one directory per project.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/tendermesh/artifact"
	"github.com/hupe1980/tendermesh/core"
)

var _ core.DocumentStore = (*Store)(nil)

// Store writes documents to <dir>/<projectID>/<documentID>.
type Store struct {
	dir string
}

// New creates the root directory if needed and returns a Store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Save writes data atomically (temp file + rename) and returns its reference.
func (s *Store) Save(ctx context.Context, projectID string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkSegment(projectID); err != nil {
		return "", err
	}
	projectDir := filepath.Join(s.dir, projectID)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", fmt.Errorf("create project dir: %w", err)
	}

	id := uuid.NewString()
	tmp, err := os.CreateTemp(projectDir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(projectDir, id)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("store document: %w", err)
	}
	return artifact.Ref(projectID, id), nil
}

// Get reads the document for ref.
func (s *Store) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, artifact.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// List returns the sorted references stored for the project.
func (s *Store) List(ctx context.Context, projectID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkSegment(projectID); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, projectID))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	refs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		refs = append(refs, artifact.Ref(projectID, e.Name()))
	}
	sort.Strings(refs)
	return refs, nil
}

// Delete removes the document or returns artifact.ErrNotFound.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return artifact.ErrNotFound
		}
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Store) path(ref string) (string, error) {
	projectID, id, err := artifact.SplitRef(ref)
	if err != nil {
		return "", err
	}
	if err := checkSegment(projectID); err != nil {
		return "", err
	}
	if err := checkSegment(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, projectID, id), nil
}

// checkSegment rejects names that could escape the root directory.
func checkSegment(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", artifact.ErrInvalidRef, name)
	}
	return nil
}
