// Package sqlite provides a durable core.ProjectStore backed by SQLite
// (modernc.org/sqlite, no cgo). The outline is stored as the JSON text it
// is encoded to on the project; sections are a JSON array column.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/tendermesh/core"

	_ "modernc.org/sqlite"
)

var _ core.ProjectStore = (*Store)(nil)

const timeLayout = time.RFC3339Nano

// Options configures a Store.
type Options struct {
	Now   func() time.Time
	NewID func() string
}

// Store is a ProjectStore over a single SQLite database file.
type Store struct {
	db   *sql.DB
	opts Options
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Now: time.Now, NewID: uuid.NewString}
	for _, fn := range optFns {
		fn(&opts)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	if _, err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, opts: opts}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Create inserts a new project in stage Initial.
func (s *Store) Create(ctx context.Context, name, createdBy string) (*core.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	now := s.opts.Now().UTC()
	p := &core.Project{
		ID:        s.opts.NewID(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
		Stage:     core.StageInitial,
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO projects(id, name, created_by, created_at, updated_at, stage)
VALUES (?,?,?,?,?,?)`,
		p.ID, p.Name, p.CreatedBy, now.Format(timeLayout), now.Format(timeLayout), string(p.Stage))
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

const selectProject = `SELECT id, name, created_by, created_at, updated_at, stage, requirement_document_ref,
structured_requirements, current_outline, sections, final_document FROM projects`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*core.Project, error) {
	var (
		p                    core.Project
		stage                string
		createdAt, updatedAt string
		sections             string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.CreatedBy, &createdAt, &updatedAt, &stage,
		&p.RequirementDocumentRef, &p.StructuredRequirements, &p.CurrentOutline, &sections, &p.FinalDocument); err != nil {
		return nil, err
	}
	p.Stage = core.Stage(stage)
	var err error
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if sections != "" && sections != "[]" {
		if err := json.Unmarshal([]byte(sections), &p.Sections); err != nil {
			return nil, fmt.Errorf("decode sections: %w", err)
		}
	}
	return &p, nil
}

// Get returns the project or core.ErrProjectNotFound.
func (s *Store) Get(ctx context.Context, id string) (*core.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, selectProject+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns all projects, newest first.
func (s *Store) List(ctx context.Context) ([]*core.Project, error) {
	rows, err := s.db.QueryContext(ctx, selectProject+` ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStatus sets only the stage column.
func (s *Store) UpdateStatus(ctx context.Context, id string, stage core.Stage) error {
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET stage=?, updated_at=? WHERE id=?`,
		string(stage), s.opts.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return requireRow(res)
}

// UpdateWhole rewrites every mutable column of the project.
func (s *Store) UpdateWhole(ctx context.Context, p *core.Project) error {
	if p == nil {
		return fmt.Errorf("project is nil")
	}
	sections := []byte("[]")
	if len(p.Sections) > 0 {
		var err error
		if sections, err = json.Marshal(p.Sections); err != nil {
			return fmt.Errorf("encode sections: %w", err)
		}
	}
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET name=?, created_by=?, updated_at=?, stage=?,
requirement_document_ref=?, structured_requirements=?, current_outline=?, sections=?, final_document=? WHERE id=?`,
		p.Name, p.CreatedBy, s.opts.Now().UTC().Format(timeLayout), string(p.Stage),
		p.RequirementDocumentRef, p.StructuredRequirements, p.CurrentOutline, string(sections), p.FinalDocument, p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrProjectNotFound
	}
	return nil
}
