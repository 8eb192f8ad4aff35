package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/licita-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CorpusStore = (*Store)(nil)

// timeLayout has fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is the SQLite corpus store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database file at path.
// If path is empty, defaults to ~/.licita/licita.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".licita", "licita.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL for concurrent readers; foreign keys on every pooled connection.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
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

// migrate runs all pending up migrations in version order.
func (s *Store) migrate(fsys fs.FS) error {
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
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_corpus.up.sql" -> 1
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

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveCorpus stores or replaces a batch corpus. A stored report is dropped.
func (s *Store) SaveCorpus(ctx context.Context, corpus *domain.CanonicalCorpus) error {
	if corpus == nil || corpus.LoteID == "" {
		return fmt.Errorf("%w: corpus without batch id", domain.ErrInvalidInput)
	}
	metadata, err := json.Marshal(corpus.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM batches WHERE id = ?", corpus.LoteID); err != nil {
		return fmt.Errorf("replacing batch: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (id, status, created_at, total_documents, total_lines,
			duplicates_removed, full_text, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, corpus.LoteID, domain.ReportCompletedWithWarnings, formatTime(corpus.CreatedAt),
		corpus.Metadata.TotalDocuments, corpus.Metadata.TotalLines,
		len(corpus.Metadata.DuplicatesRemoved), corpus.FullText, string(metadata))
	if err != nil {
		return fmt.Errorf("saving batch: %w", err)
	}

	if err := insertSegments(ctx, tx, corpus); err != nil {
		return err
	}
	if err := insertLines(ctx, tx, corpus); err != nil {
		return err
	}
	if err := insertRemoved(ctx, tx, corpus); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertSegments(ctx context.Context, tx *sql.Tx, corpus *domain.CanonicalCorpus) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (batch_id, idx, document_id, filename, type, segment_hash,
			line_start, line_end, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing segments: %w", err)
	}
	defer stmt.Close()

	for i, seg := range corpus.Segments {
		data, err := json.Marshal(seg)
		if err != nil {
			return fmt.Errorf("marshalling segment %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, corpus.LoteID, i, seg.DocumentID, seg.Filename,
			seg.Type, seg.SegmentHash, seg.GlobalLineRange.Start, seg.GlobalLineRange.End,
			string(data)); err != nil {
			return fmt.Errorf("saving segment %d: %w", i, err)
		}
	}
	return nil
}

func insertLines(ctx context.Context, tx *sql.Tx, corpus *domain.CanonicalCorpus) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lines (batch_id, line_number, text, char_start, char_end,
			source_doc_id, source_page, local_line, segment_idx)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing lines: %w", err)
	}
	defer stmt.Close()

	for _, gl := range corpus.GlobalLines {
		segIdx := -1
		if loc, ok := corpus.LineMap[domain.LineKey(gl.LineNumber)]; ok {
			segIdx = loc.SegmentIndex
		}
		if _, err := stmt.ExecContext(ctx, corpus.LoteID, gl.LineNumber, gl.Text,
			gl.CharStart, gl.CharEnd, gl.SourceDocID, gl.SourcePage, gl.LocalLineInPage,
			segIdx); err != nil {
			return fmt.Errorf("saving line %d: %w", gl.LineNumber, err)
		}
	}
	return nil
}

func insertRemoved(ctx context.Context, tx *sql.Tx, corpus *domain.CanonicalCorpus) error {
	for _, r := range corpus.Metadata.DuplicatesRemoved {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO removed_documents (batch_id, document_id, filename,
				kept_document_id, kept_filename, similarity, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, corpus.LoteID, r.DocumentID, r.Filename, r.KeptDocumentID, r.KeptFilename,
			r.Similarity, r.Reason)
		if err != nil {
			return fmt.Errorf("saving removed document %s: %w", r.Filename, err)
		}
	}
	return nil
}

// SaveReport stores the report of a batch whose corpus is already saved.
func (s *Store) SaveReport(ctx context.Context, report *domain.FinalReport) error {
	if report == nil {
		return fmt.Errorf("%w: nil report", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	var recommendation domain.Recommendation
	if d, ok := report.Decision(); ok {
		recommendation = d.Recommendation
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE batches SET status = ?, recommendation = ? WHERE id = ?
	`, report.Status, recommendation, report.LoteID)
	if err != nil {
		return fmt.Errorf("updating batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("batch %s: %w", report.LoteID, domain.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (batch_id, status, data, finished_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(batch_id) DO UPDATE SET
			status = excluded.status,
			data = excluded.data,
			finished_at = excluded.finished_at
	`, report.LoteID, report.Status, string(data), formatTime(report.FinishedAt))
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetCorpus rebuilds a stored corpus, line map included.
func (s *Store) GetCorpus(ctx context.Context, batchID string) (*domain.CanonicalCorpus, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, full_text, metadata FROM batches WHERE id = ?
	`, batchID)

	var c domain.CanonicalCorpus
	var createdAt, metadata string
	if err := row.Scan(&c.LoteID, &createdAt, &c.FullText, &metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning batch: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	if err := json.Unmarshal([]byte(metadata), &c.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}

	segs, err := s.db.QueryContext(ctx, `
		SELECT data FROM segments WHERE batch_id = ? ORDER BY idx
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer segs.Close()
	for segs.Next() {
		var data string
		if err := segs.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		var seg domain.Segment
		if err := json.Unmarshal([]byte(data), &seg); err != nil {
			return nil, fmt.Errorf("unmarshalling segment: %w", err)
		}
		c.Segments = append(c.Segments, seg)
	}
	if err := segs.Err(); err != nil {
		return nil, err
	}

	lines, err := s.db.QueryContext(ctx, `
		SELECT line_number, text, char_start, char_end, source_doc_id, source_page,
			local_line, segment_idx
		FROM lines WHERE batch_id = ? ORDER BY line_number
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("querying lines: %w", err)
	}
	defer lines.Close()

	c.LineMap = make(map[string]domain.LineLocation)
	for lines.Next() {
		var gl domain.GlobalLine
		var segIdx int
		if err := lines.Scan(&gl.LineNumber, &gl.Text, &gl.CharStart, &gl.CharEnd,
			&gl.SourceDocID, &gl.SourcePage, &gl.LocalLineInPage, &segIdx); err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}
		c.GlobalLines = append(c.GlobalLines, gl)
		if segIdx < 0 || segIdx >= len(c.Segments) {
			continue
		}
		c.LineMap[domain.LineKey(gl.LineNumber)] = domain.LineLocation{
			DocumentID:      gl.SourceDocID,
			DocumentName:    c.Segments[segIdx].Filename,
			SegmentIndex:    segIdx,
			Page:            gl.SourcePage,
			LocalLineInPage: gl.LocalLineInPage,
			CharStart:       gl.CharStart,
			CharEnd:         gl.CharEnd,
		}
	}
	if err := lines.Err(); err != nil {
		return nil, err
	}

	return &c, nil
}

// GetReport returns a stored report.
func (s *Store) GetReport(ctx context.Context, batchID string) (*domain.FinalReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM reports WHERE batch_id = ?", batchID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning report: %w", err)
	}

	var r domain.FinalReport
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("unmarshalling report: %w", err)
	}
	return &r, nil
}

// GetLine resolves one line without loading the whole corpus.
func (s *Store) GetLine(ctx context.Context, batchID string, line int) (*domain.LineLookup, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT l.line_number, l.text, l.char_start, l.char_end, l.source_doc_id,
			l.source_page, l.local_line, COALESCE(s.filename, ''), COALESCE(s.type, '')
		FROM lines l
		LEFT JOIN segments s ON s.batch_id = l.batch_id AND s.idx = l.segment_idx
		WHERE l.batch_id = ? AND l.line_number = ?
	`, batchID, line)

	lookup := &domain.LineLookup{BatchID: batchID}
	gl := &lookup.Line
	if err := row.Scan(&gl.LineNumber, &gl.Text, &gl.CharStart, &gl.CharEnd, &gl.SourceDocID,
		&gl.SourcePage, &gl.LocalLineInPage, &lookup.DocumentName, &lookup.DocumentType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, err := s.batchExists(ctx, batchID); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("line %d: %w", line, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning line: %w", err)
	}
	return lookup, nil
}

// ListBatches returns stored batches, newest first.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]domain.BatchRecord, error) {
	query := `
		SELECT id, status, recommendation, created_at, total_documents, total_lines,
			duplicates_removed
		FROM batches ORDER BY created_at DESC, id ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var records []domain.BatchRecord
	for rows.Next() {
		var r domain.BatchRecord
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Status, &r.Recommendation, &createdAt,
			&r.TotalDocuments, &r.TotalLines, &r.DuplicatesRemoved); err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteBatch removes a batch; child rows cascade.
func (s *Store) DeleteBatch(ctx context.Context, batchID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM batches WHERE id = ?", batchID)
	if err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) batchExists(ctx context.Context, batchID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM batches WHERE id = ?", batchID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, domain.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("checking batch: %w", err)
	}
	return true, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
