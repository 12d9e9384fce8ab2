package sqlite

import (
	"context"
	"database/sql"
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
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docindex/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
	"github.com/custodia-labs/docindex/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// DatabaseFile is the file name of the index database inside the data directory.
const DatabaseFile = "index.db"

// Run statuses stored in index_runs.
const (
	runRunning   = "running"
	runCompleted = "completed"
	runFailed    = "failed"
)

// Store is the SQLite-backed index store.
type Store struct {
	db   *sql.DB
	path string

	schemaMu sync.Mutex
	schemaOK bool
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.docindex/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docindex", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode so readers never block the uploader
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
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

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// EnsureSchema runs pending migrations. Safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaOK {
		return nil
	}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	s.schemaOK = true
	return nil
}

// migrate runs all pending up migrations, each in its own transaction.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_index.up.sql" -> 1
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
		if err := s.applyMigration(ctx, version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		logger.Debug("Applied migration %s", name)
	}

	return nil
}

func (s *Store) applyMigration(ctx context.Context, version int, script string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Upload ====================

// UploadChunks writes records as a new run, one transaction per batch.
// The run becomes visible only after its last batch commits, at which
// point rows of every other run are deleted.
func (s *Store) UploadChunks(ctx context.Context, records []domain.Record, batchSize int) (*domain.UploadReport, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive", domain.ErrInvalidInput)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	report := &domain.UploadReport{RunID: uuid.NewString(), FailedBatch: -1}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO index_runs (run_id, status, started_at) VALUES (?, ?, ?)",
		report.RunID, runRunning, time.Now().UnixNano()); err != nil {
		report.FailedBatch = 0
		return report, fmt.Errorf("%w: opening run: %w", domain.ErrUploadFailed, err)
	}

	for batch, start := 0, 0; start < len(records); batch, start = batch+1, start+batchSize {
		end := min(start+batchSize, len(records))
		if err := s.writeBatch(ctx, report.RunID, records[start:end]); err != nil {
			report.FailedBatch = batch
			s.markFailed(ctx, report.RunID)
			return report, fmt.Errorf("%w: batch %d: %w", domain.ErrUploadFailed, batch, err)
		}
		report.BatchesWritten++
		report.RecordsWritten += end - start
		logger.Debug("Uploaded batch %d (%d records)", batch, end-start)
	}

	if err := s.completeRun(ctx, report.RunID, report.RecordsWritten); err != nil {
		report.FailedBatch = report.BatchesWritten
		s.markFailed(ctx, report.RunID)
		return report, fmt.Errorf("%w: completing run: %w", domain.ErrUploadFailed, err)
	}
	report.Completed = true
	return report, nil
}

const insertRecord = `
	INSERT OR REPLACE INTO index_records (
		run_id, document_id, chunk_id, chunk_count,
		file_path, relative_path, file_name, file_stem, extension, file_size, modified_at,
		content_hash, category, title, table_context, query_info,
		chunk_start, chunk_end, content, bm25_tokens, token_text,
		embedding, embedding_dim, processed_at,
		token_text_lower, content_lower, file_name_lower
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *Store) writeBatch(ctx context.Context, runID string, records []domain.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		doc, chunk := r.Document, r.Chunk

		tableJSON, err := marshalOptional(doc.Table)
		if err != nil {
			return fmt.Errorf("marshalling table context: %w", err)
		}
		queryJSON, err := marshalOptional(doc.Query)
		if err != nil {
			return fmt.Errorf("marshalling query info: %w", err)
		}
		tokens := chunk.Tokens
		if tokens == nil {
			tokens = []string{}
		}
		tokensJSON, err := json.Marshal(tokens)
		if err != nil {
			return fmt.Errorf("marshalling tokens: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			runID, doc.ID, chunk.ChunkID, chunk.ChunkCount,
			doc.Path, doc.RelativePath, doc.FileName, doc.FileStem, doc.Extension, doc.Size, unixNano(doc.ModifiedAt),
			doc.ContentHash, string(doc.Category), doc.Title, tableJSON, queryJSON,
			chunk.Start, chunk.End, chunk.Content, string(tokensJSON), chunk.TokenText,
			float32SliceToBytes(chunk.Embedding), len(chunk.Embedding), unixNano(r.ProcessedAt),
			strings.ToLower(chunk.TokenText), strings.ToLower(chunk.Content), strings.ToLower(doc.FileName),
		); err != nil {
			return fmt.Errorf("saving record %s#%d: %w", doc.RelativePath, chunk.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// completeRun marks the run completed and drops every other run atomically.
func (s *Store) completeRun(ctx context.Context, runID string, written int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"UPDATE index_runs SET status = ?, completed_at = ?, records_written = ? WHERE run_id = ?",
		runCompleted, time.Now().UnixNano(), written, runID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM index_records WHERE run_id <> ?", runID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM index_runs WHERE run_id <> ?", runID); err != nil {
		return err
	}
	return tx.Commit()
}

// markFailed records a failed run. It runs even if ctx was cancelled.
func (s *Store) markFailed(ctx context.Context, runID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx,
		"UPDATE index_runs SET status = ? WHERE run_id = ?", runFailed, runID); err != nil {
		logger.Warn("marking run %s failed: %v", runID, err)
	}
}

// ==================== Reads ====================

// TableStats returns aggregate statistics about the visible records.
func (s *Store) TableStats(ctx context.Context) (*domain.TableStats, error) {
	var stats domain.TableStats
	var first, last int64

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT content_hash),
		       COUNT(DISTINCT category),
		       COALESCE(AVG(LENGTH(CAST(content AS BLOB))), 0),
		       COALESCE(MIN(processed_at), 0),
		       COALESCE(MAX(processed_at), 0)
		FROM current_index_records
	`)
	if err := row.Scan(&stats.TotalChunks, &stats.DistinctFiles, &stats.DistinctCategory,
		&stats.AvgContentLength, &first, &last); err != nil {
		return nil, fmt.Errorf("%w: reading stats: %w", domain.ErrStoreUnavailable, err)
	}
	if stats.TotalChunks > 0 {
		stats.FirstProcessedAt = fromUnixNano(first)
		stats.LastProcessedAt = fromUnixNano(last)
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT run_id FROM index_runs WHERE status = ? ORDER BY completed_at DESC LIMIT 1
	`, runCompleted).Scan(&stats.RunID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: reading current run: %w", domain.ErrStoreUnavailable, err)
	}

	return &stats, nil
}

// Clear deletes every record and run.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_records"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM index_runs"); err != nil {
		return fmt.Errorf("clearing runs: %w", err)
	}
	return tx.Commit()
}

const recordColumns = `
	run_id, document_id, chunk_id, chunk_count,
	file_path, relative_path, file_name, file_stem, extension, file_size, modified_at,
	content_hash, category, title, table_context, query_info,
	chunk_start, chunk_end, content, bm25_tokens, token_text,
	embedding, embedding_dim, processed_at`

// Candidates returns visible records ordered by tiered containment score.
// The query is folded with strings.ToLower, the same way the *_lower
// columns are folded at upload.
func (s *Store) Candidates(
	ctx context.Context, query string, category *domain.Category, limit int,
) ([]domain.Candidate, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	cat := ""
	if category != nil {
		cat = string(*category)
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`,
			CASE
				WHEN ? = '' THEN 0.0
				WHEN instr(token_text_lower, ?) > 0 THEN 1.0
				WHEN instr(content_lower, ?) > 0 THEN 0.8
				WHEN instr(file_name_lower, ?) > 0 THEN 0.6
				ELSE 0.0
			END AS lexical_score
		FROM current_index_records
		WHERE (? = '' OR category = ?)
		ORDER BY lexical_score DESC, relative_path, chunk_id
		LIMIT ?
	`, q, q, q, q, cat, cat, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying candidates: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var score float64
		c, err := scanRecord(rows, &score)
		if err != nil {
			return nil, err
		}
		c.LexicalScore = score
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}
	return out, nil
}

// DocumentChunks returns every visible record of a document ordered by chunk ID.
func (s *Store) DocumentChunks(ctx context.Context, documentID string) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM current_index_records
		WHERE document_id = ?
		ORDER BY chunk_id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		c, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if c.EmbeddingErr != nil {
			logger.Debug("document %s chunk %d: %v", documentID, c.Record.Chunk.ChunkID, c.EmbeddingErr)
		}
		out = append(out, c.Record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// ==================== Helper Functions ====================

// scanRecord scans recordColumns plus any extra destinations. A stored
// embedding that cannot be decoded is reported in EmbeddingErr so the
// record stays usable for lexical ranking.
func scanRecord(rows *sql.Rows, extra ...any) (domain.Candidate, error) {
	var (
		c                     domain.Candidate
		category              string
		tableJSON, queryJSON  sql.NullString
		tokensJSON            string
		blob                  []byte
		modifiedAt, processed int64
	)
	r := &c.Record
	doc, chunk := &r.Document, &r.Chunk

	dest := []any{
		&r.RunID, &doc.ID, &chunk.ChunkID, &chunk.ChunkCount,
		&doc.Path, &doc.RelativePath, &doc.FileName, &doc.FileStem, &doc.Extension, &doc.Size, &modifiedAt,
		&doc.ContentHash, &category, &doc.Title, &tableJSON, &queryJSON,
		&chunk.Start, &chunk.End, &chunk.Content, &tokensJSON, &chunk.TokenText,
		&blob, &chunk.EmbeddingDim, &processed,
	}
	if err := rows.Scan(append(dest, extra...)...); err != nil {
		return c, fmt.Errorf("scanning record: %w", err)
	}

	doc.Category = domain.Category(category)
	doc.ModifiedAt = fromUnixNano(modifiedAt)
	chunk.DocumentID = doc.ID
	r.ProcessedAt = fromUnixNano(processed)

	if tableJSON.Valid {
		doc.Table = &domain.TableContext{}
		if err := json.Unmarshal([]byte(tableJSON.String), doc.Table); err != nil {
			return c, fmt.Errorf("unmarshalling table context: %w", err)
		}
	}
	if queryJSON.Valid {
		doc.Query = &domain.QueryInfo{}
		if err := json.Unmarshal([]byte(queryJSON.String), doc.Query); err != nil {
			return c, fmt.Errorf("unmarshalling query info: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(tokensJSON), &chunk.Tokens); err != nil {
		return c, fmt.Errorf("unmarshalling tokens: %w", err)
	}

	emb, embErr := bytesToFloat32Slice(blob)
	if embErr == nil && chunk.EmbeddingDim != len(emb) {
		embErr = fmt.Errorf("%w: dimension %d, blob holds %d values",
			domain.ErrMalformedEmbedding, chunk.EmbeddingDim, len(emb))
	}
	if embErr != nil {
		c.EmbeddingErr = embErr
		return c, nil
	}
	chunk.Embedding = emb
	return c, nil
}

func marshalOptional[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a stored blob back to []float32.
func bytesToFloat32Slice(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: blob length %d is not a multiple of 4", domain.ErrMalformedEmbedding, len(data))
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}
