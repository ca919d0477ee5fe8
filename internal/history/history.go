// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite journal of produced artifacts so they can
// be listed, inspected and re-rendered. The journal lives next to the
// artifacts at <output dir>/.thoughtprint/history.db. It only records what
// happened; the files on disk remain the source of truth.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/thoughtprint/pkg/types"
)

const (
	stateDir = ".thoughtprint"
	dbFile   = "history.db"

	defaultLimit = 20

	// timeFormat is fixed width so that created_at sorts as text.
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned by Get when no entry matches.
var ErrNotFound = errors.New("history entry not found")

// Entry is one journal row: the artifact, the request that produced it and
// the conversion error, if any.
type Entry struct {
	types.Artifact `yaml:",inline"`
	types.Request  `yaml:",inline"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ListOptions filters List results.
type ListOptions struct {
	// Query matches a substring of the prompt or title.
	Query string
	// Status restricts to one artifact status.
	Status types.ArtifactStatus
	// Limit caps the number of entries; zero means 20, negative means all.
	Limit int
}

// Store is an open history database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the journal location for an output directory.
func DefaultPath(outputDir string) string {
	return filepath.Join(outputDir, stateDir, dbFile)
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			provider TEXT,
			model TEXT,
			prompt TEXT,
			system_prompt TEXT,
			title TEXT,
			markdown_path TEXT NOT NULL,
			pdf_path TEXT,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_status ON artifacts(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts e. Recording the same id twice is an error.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, created_at, provider, model, prompt, system_prompt,
			title, markdown_path, pdf_path, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UTC().Format(timeFormat), e.Provider, e.Model, e.Prompt, e.SystemPrompt,
		e.Title, e.MarkdownPath, e.PDFPath, string(e.Status), e.Error,
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.ID, err)
	}
	return nil
}

// MarkConverted records that the PDF for id now exists.
func (s *Store) MarkConverted(ctx context.Context, id, pdfPath string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET pdf_path = ?, status = ?, error = '' WHERE id = ?`,
		pdfPath, string(types.ArtifactComplete), id)
	if err != nil {
		return fmt.Errorf("updating %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

const selectColumns = `SELECT id, created_at, provider, model, prompt, system_prompt,
	title, markdown_path, pdf_path, status, error FROM artifacts`

// List returns entries newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	limit := opts.Limit
	switch {
	case limit == 0:
		limit = defaultLimit
	case limit < 0:
		limit = -1
	}

	var (
		qb    strings.Builder
		where []string
		args  []any
	)
	qb.WriteString(selectColumns)
	if opts.Query != "" {
		pattern := "%" + escapeLike(opts.Query) + "%"
		where = append(where, `(prompt LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if len(where) > 0 {
		qb.WriteString(" WHERE ")
		qb.WriteString(strings.Join(where, " AND "))
	}
	qb.WriteString(" ORDER BY created_at DESC, id LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry whose id equals or starts with idOrPrefix. An
// ambiguous prefix is an error.
func (s *Store) Get(ctx context.Context, idOrPrefix string) (Entry, error) {
	if idOrPrefix == "" {
		return Entry{}, fmt.Errorf("empty id: %w", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
		escapeLike(idOrPrefix)+"%")
	if err != nil {
		return Entry{}, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var matches []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Entry{}, err
		}
		matches = append(matches, e)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, err
	}

	switch {
	case len(matches) == 0:
		return Entry{}, fmt.Errorf("%s: %w", idOrPrefix, ErrNotFound)
	case len(matches) > 1 && matches[0].ID != idOrPrefix:
		return Entry{}, fmt.Errorf("id prefix %q is ambiguous", idOrPrefix)
	}
	return matches[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var created, status string
	var provider, model, prompt, sysPrompt, title, pdfPath, errText sql.NullString
	if err := row.Scan(&e.ID, &created, &provider, &model, &prompt, &sysPrompt,
		&title, &e.MarkdownPath, &pdfPath, &status, &errText); err != nil {
		return Entry{}, fmt.Errorf("scanning history row: %w", err)
	}
	t, err := time.Parse(timeFormat, created)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing created_at of %s: %w", e.ID, err)
	}
	e.CreatedAt = t
	e.Status = types.ArtifactStatus(status)
	e.Provider = provider.String
	e.Model = model.String
	e.Prompt = prompt.String
	e.SystemPrompt = sysPrompt.String
	e.Title = title.String
	e.PDFPath = pdfPath.String
	e.Error = errText.String
	return e, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
