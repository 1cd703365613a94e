package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/testbrain-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.KnowledgeStore = (*Store)(nil)

// Store persists knowledge-base builds in SQLite.
// A build is written whole inside one transaction and replaces the prior
// build, so the database only ever holds the old build or the new one.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.testbrain/data/knowledge.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".testbrain", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "knowledge.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
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

// SaveBuild stores a complete build and marks it active, replacing any
// prior build, in one transaction.
func (s *Store) SaveBuild(ctx context.Context, kb *domain.KnowledgeBase) error {
	if kb == nil || kb.BuildID == "" {
		return fmt.Errorf("%w: build has no id", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	// Prior builds cascade to their documents and chunks.
	if _, err := tx.ExecContext(ctx, `DELETE FROM builds`); err != nil {
		return fmt.Errorf("removing prior builds: %w", err)
	}

	warningsJSON, err := json.Marshal(kb.Warnings)
	if err != nil {
		return fmt.Errorf("marshalling warnings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO builds (id, built_at, dimensions, warnings, active)
		VALUES (?, ?, ?, ?, 1)
	`, kb.BuildID, kb.BuiltAt.UTC(), kb.Dimensions, string(warningsJSON)); err != nil {
		return fmt.Errorf("saving build: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, build_id, filename, source_type, title, content, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer docStmt.Close()

	for _, doc := range kb.Documents {
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling document metadata: %w", err)
		}
		if _, err := docStmt.ExecContext(ctx,
			doc.ID, kb.BuildID, doc.Filename, string(doc.Type), doc.Title,
			doc.Content, string(metadataJSON), doc.IngestedAt.UTC()); err != nil {
			return fmt.Errorf("saving document %q: %w", doc.Filename, err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, build_id, document_id, source_filename, source_type, sequence_index, text, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	for i := range kb.Chunks {
		chunk := &kb.Chunks[i]
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := chunkStmt.ExecContext(ctx,
			chunk.ID, kb.BuildID, chunk.DocumentID, chunk.SourceFilename,
			string(chunk.SourceType), chunk.SequenceIndex, chunk.Text,
			float32SliceToBytes(chunk.Embedding), string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk %q: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit build: %w", err)
	}
	return nil
}

// LoadActiveBuild retrieves the active build with all documents and chunks.
func (s *Store) LoadActiveBuild(ctx context.Context) (*domain.KnowledgeBase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, built_at, dimensions, warnings
		FROM builds WHERE active = 1
		ORDER BY built_at DESC LIMIT 1
	`)

	kb := &domain.KnowledgeBase{Documents: make(map[string]domain.Document)}
	var warningsJSON string
	if err := row.Scan(&kb.BuildID, &kb.BuiltAt, &kb.Dimensions, &warningsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning build: %w", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &kb.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshalling warnings: %w", err)
	}

	if err := s.loadDocuments(ctx, kb); err != nil {
		return nil, err
	}
	if err := s.loadChunks(ctx, kb); err != nil {
		return nil, err
	}

	return kb, nil
}

// loadDocuments populates kb.Documents for the build.
func (s *Store) loadDocuments(ctx context.Context, kb *domain.KnowledgeBase) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, source_type, title, content, metadata, ingested_at
		FROM documents WHERE build_id = ?
	`, kb.BuildID)
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc domain.Document
		var sourceType, metadataJSON string
		var ingestedAt sql.NullTime
		if err := rows.Scan(&doc.ID, &doc.Filename, &sourceType, &doc.Title,
			&doc.Content, &metadataJSON, &ingestedAt); err != nil {
			return fmt.Errorf("scanning document: %w", err)
		}
		doc.Type = domain.SourceType(sourceType)
		if ingestedAt.Valid {
			doc.IngestedAt = ingestedAt.Time
		}
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return fmt.Errorf("unmarshalling document metadata: %w", err)
		}
		kb.Documents[doc.Filename] = doc
	}
	return rows.Err()
}

// loadChunks populates kb.Chunks for the build, in filename/sequence order.
func (s *Store) loadChunks(ctx context.Context, kb *domain.KnowledgeBase) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, source_filename, source_type, sequence_index, text, embedding, metadata
		FROM chunks WHERE build_id = ?
		ORDER BY source_filename, sequence_index
	`, kb.BuildID)
	if err != nil {
		return fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunk domain.Chunk
		var sourceType, metadataJSON string
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.SourceFilename,
			&sourceType, &chunk.SequenceIndex, &chunk.Text, &embeddingBlob, &metadataJSON); err != nil {
			return fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.SourceType = domain.SourceType(sourceType)
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
		kb.Chunks = append(kb.Chunks, chunk)
	}
	return rows.Err()
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
