package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"book-recommender/internal/embeddings"
	"book-recommender/internal/retry"
)

const (
	insertBatchSize = 500
	pingAttempts    = 5
)

// PostgresStore keeps descriptions in a pgvector column and searches by exact cosine distance.
type PostgresStore struct {
	db         *sql.DB
	dimensions int
}

// NewPostgres connects, waits for the server and creates the schema.
func NewPostgres(ctx context.Context, dsn string, dimensions int) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := ping(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	s := &PostgresStore{db: db, dimensions: dimensions}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	var err error
	for attempt := 0; attempt < pingAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.ExponentialBackoff(attempt, 200*time.Millisecond)):
		}
	}
	return fmt.Errorf("postgres unreachable after %d attempts: %w", pingAttempts, err)
}

// schema lists the migration statements for a table of the given vector width.
// TopK scans exactly so ties break on ord; an approximate index would trade that
// ordering for recall, so any index left by older schemas is dropped.
func schema(dimensions int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS descriptions (
		ord INT PRIMARY KEY,
		text TEXT NOT NULL,
		vector vector(%d) NOT NULL,
		model TEXT
	)`, dimensions),
		`DROP INDEX IF EXISTS descriptions_vector_idx`,
	}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	for _, stmt := range schema(s.dimensions) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate descriptions: %w", err)
		}
	}
	return nil
}

// SaveDocuments truncates and reloads the table in one transaction.
func (s *PostgresStore) SaveDocuments(ctx context.Context, docs []Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE descriptions`); err != nil {
		return err
	}
	for start := 0; start < len(docs); start += insertBatchSize {
		end := min(start+insertBatchSize, len(docs))
		batch := docs[start:end]

		ords := make([]int64, len(batch))
		texts := make([]string, len(batch))
		vectors := make([]string, len(batch))
		models := make([]string, len(batch))
		for i, d := range batch {
			if len(d.Vector) != s.dimensions {
				return fmt.Errorf("document %d has %d dimensions, table expects %d", d.Index, len(d.Vector), s.dimensions)
			}
			ords[i] = int64(d.Index)
			texts[i] = d.Text
			vectors[i] = vectorToString(d.Vector)
			models[i] = d.Model
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO descriptions(ord, text, vector, model)
			SELECT * FROM unnest($1::int[], $2::text[], $3::vector[], $4::text[])`,
			pq.Array(ords), pq.Array(texts), pq.Array(vectors), pq.Array(models))
		if err != nil {
			return fmt.Errorf("insert descriptions %d-%d: %w", start, end, err)
		}
	}
	return tx.Commit()
}

// TopK orders by cosine distance; ties fall back to file order.
func (s *PostgresStore) TopK(ctx context.Context, vector embeddings.Vector, k int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ord, text, model, 1 - (vector <=> $1) AS similarity
		FROM descriptions
		ORDER BY vector <=> $1, ord
		LIMIT $2
	`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			doc        Document
			model      sql.NullString
			similarity float64
		)
		if err := rows.Scan(&doc.Index, &doc.Text, &model, &similarity); err != nil {
			return nil, err
		}
		doc.Model = model.String
		results = append(results, SearchResult{Document: doc, Score: float32(similarity)})
	}
	return results, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM descriptions`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PostgresStore) Digest(ctx context.Context) (string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ord, text, COALESCE(model, '') FROM descriptions ORDER BY ord`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Index, &d.Text, &d.Model); err != nil {
			return "", err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return Digest(docs), nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// vectorToString converts a Vector ([]float32) to pgvector array format.
// Format: "[0.1,0.2,0.3,...]"
func vectorToString(v embeddings.Vector) string {
	if len(v) == 0 {
		return "[]"
	}
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
