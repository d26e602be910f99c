package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/prism/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ReferenceStore = (*Store)(nil)

// Store is a SQLite-backed reference store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.prism/data/references.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".prism", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "references.db")

	// WAL mode lets readers proceed while a writer holds the lock.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_references.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// Insert stores a reference, creating its draft on first use.
// The uniqueness check and the insert happen in one transaction.
func (s *Store) Insert(ctx context.Context, ref domain.Reference) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// A write first, so the transaction holds the write lock from the start.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO drafts (id, created_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, ref.DraftID, ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO draft_references (id, draft_id, chunk_id, paragraph_index, reference_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(draft_id, chunk_id, paragraph_index) DO NOTHING
	`, ref.ID, ref.DraftID, ref.ChunkID, ref.ParagraphIndex, ref.Type.String(), ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving reference: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert: %w", err)
	}
	if n == 0 {
		return domain.ErrDuplicateReference
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reference: %w", err)
	}
	return nil
}

// List returns a draft's references in insertion order.
func (s *Store) List(ctx context.Context, draftID string) ([]domain.Reference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, draft_id, chunk_id, paragraph_index, reference_type, created_at
		FROM draft_references
		WHERE draft_id = ?
		ORDER BY seq
	`, draftID)
	if err != nil {
		return nil, fmt.Errorf("querying references: %w", err)
	}
	defer rows.Close()

	refs := []domain.Reference{}
	for rows.Next() {
		var ref domain.Reference
		var refType string
		var createdAt sql.NullTime
		if err := rows.Scan(&ref.ID, &ref.DraftID, &ref.ChunkID, &ref.ParagraphIndex,
			&refType, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning reference: %w", err)
		}
		ref.Type = domain.ReferenceType(refType)
		if createdAt.Valid {
			ref.CreatedAt = createdAt.Time.UTC()
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating references: %w", err)
	}
	return refs, nil
}

// Delete removes one reference from a draft.
func (s *Store) Delete(ctx context.Context, draftID, referenceID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM draft_references WHERE draft_id = ? AND id = ?", draftID, referenceID)
	if err != nil {
		return fmt.Errorf("deleting reference: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}

	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM drafts WHERE id = ?", draftID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrDraftNotFound
		}
		if err != nil {
			return fmt.Errorf("checking draft: %w", err)
		}
		return domain.ErrReferenceNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}
