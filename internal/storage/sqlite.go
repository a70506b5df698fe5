// Package storage persists evaluation runs and their per-row detail in
// an ephemeral SQLite database.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pvcastro/cinevec/internal/metrics"
)

// ErrRunNotFound means no evaluation run exists with the given id.
var ErrRunNotFound = errors.New("evaluation run not found")

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS eval_runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			top_k INTEGER NOT NULL,
			total_evaluated INTEGER NOT NULL,
			total_with_genres INTEGER NOT NULL,
			total_without_genres INTEGER NOT NULL,
			precision_at_k REAL NOT NULL,
			recall_at_k REAL NOT NULL,
			mrr REAL NOT NULL,
			ndcg REAL NOT NULL,
			genre_binary REAL,
			genre_proportional REAL
		);

		CREATE TABLE IF NOT EXISTS eval_rows (
			run_id TEXT NOT NULL REFERENCES eval_runs(id),
			position INTEGER NOT NULL,
			movie_id TEXT NOT NULL,
			movie_title TEXT NOT NULL,
			query TEXT NOT NULL,
			precision_at_k REAL NOT NULL,
			recall_at_k REAL NOT NULL,
			mrr REAL NOT NULL,
			ndcg REAL NOT NULL,
			genre_binary REAL,
			genre_proportional REAL,
			top_ids TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_eval_rows_movie ON eval_rows(movie_id);
	`

	_, err := db.Exec(schema)
	return err
}

// Run is one persisted evaluation run.
type Run struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	TopK      int             `json:"top_k"`
	Summary   metrics.Summary `json:"summary"`
}

// Row is one persisted evaluation row.
type Row struct {
	MovieID    string            `json:"movie_id"`
	MovieTitle string            `json:"movie_title"`
	Query      string            `json:"query"`
	Scores     metrics.RowScores `json:"scores"`
	TopIDs     []string          `json:"top_ids"`
}

// SaveRun persists a summary plus its detail rows in one transaction
// and returns the generated run id.
func (d *DB) SaveRun(topK int, summary metrics.Summary, rows []Row) (string, error) {
	runID := uuid.NewString()

	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO eval_runs (
			id, created_at, top_k,
			total_evaluated, total_with_genres, total_without_genres,
			precision_at_k, recall_at_k, mrr, ndcg,
			genre_binary, genre_proportional
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().Unix(), topK,
		summary.TotalEvaluated, summary.TotalWithGenres, summary.TotalWithoutGenres,
		summary.PrecisionAtK, summary.RecallAtK, summary.MRR, summary.NDCG,
		nullable(summary.GenreBinary), nullable(summary.GenreProportional),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO eval_rows (
			run_id, position, movie_id, movie_title, query,
			precision_at_k, recall_at_k, mrr, ndcg,
			genre_binary, genre_proportional, top_ids
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		_, err = stmt.Exec(
			runID, i, row.MovieID, row.MovieTitle, row.Query,
			row.Scores.Precision, row.Scores.Recall, row.Scores.MRR, row.Scores.NDCG,
			nullable(row.Scores.GenreBinary), nullable(row.Scores.GenreProportional),
			strings.Join(row.TopIDs, ","),
		)
		if err != nil {
			return "", fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// GetRun loads one run's summary by id.
func (d *DB) GetRun(id string) (*Run, error) {
	row := d.db.QueryRow(`
		SELECT id, created_at, top_k,
			total_evaluated, total_with_genres, total_without_genres,
			precision_at_k, recall_at_k, mrr, ndcg,
			genre_binary, genre_proportional
		FROM eval_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first, up to limit (0 means all).
func (d *DB) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT id, created_at, top_k,
			total_evaluated, total_with_genres, total_without_genres,
			precision_at_k, recall_at_k, mrr, ndcg,
			genre_binary, genre_proportional
		FROM eval_runs ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRows loads a run's detail rows in their original order.
func (d *DB) GetRows(runID string) ([]Row, error) {
	rows, err := d.db.Query(`
		SELECT movie_id, movie_title, query,
			precision_at_k, recall_at_k, mrr, ndcg,
			genre_binary, genre_proportional, top_ids
		FROM eval_rows WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r      Row
			binary sql.NullFloat64
			prop   sql.NullFloat64
			topIDs string
		)
		err := rows.Scan(
			&r.MovieID, &r.MovieTitle, &r.Query,
			&r.Scores.Precision, &r.Scores.Recall, &r.Scores.MRR, &r.Scores.NDCG,
			&binary, &prop, &topIDs,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Scores.GenreBinary = fromNullable(binary)
		r.Scores.GenreProportional = fromNullable(prop)
		if topIDs != "" {
			r.TopIDs = strings.Split(topIDs, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*Run, error) {
	var (
		run       Run
		createdAt int64
		binary    sql.NullFloat64
		prop      sql.NullFloat64
	)
	err := s.Scan(
		&run.ID, &createdAt, &run.TopK,
		&run.Summary.TotalEvaluated, &run.Summary.TotalWithGenres, &run.Summary.TotalWithoutGenres,
		&run.Summary.PrecisionAtK, &run.Summary.RecallAtK, &run.Summary.MRR, &run.Summary.NDCG,
		&binary, &prop,
	)
	if err != nil {
		return nil, err
	}
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	run.Summary.GenreBinary = fromNullable(binary)
	run.Summary.GenreProportional = fromNullable(prop)
	return &run, nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
