package vector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/docchat/internal/model"
	"github.com/xxxsen/docchat/internal/pkg/dbutil"
)

type pgConfig struct {
	DSN       string `json:"dsn"`
	Dimension int    `json:"dimension"`
}

type pgStore struct {
	db *sql.DB
}

func init() {
	Register("pgvector", createPGStore)
}

func createPGStore(args interface{}) (Store, error) {
	cfg := &pgConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pgvector dsn is required")
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 768
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	st := &pgStore{db: db}
	if err := st.ensureSchema(context.Background(), cfg.Dimension); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *pgStore) ensureSchema(ctx context.Context, dimension int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			document_name TEXT NOT NULL,
			ordinal INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, dimension),
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id ON document_chunks (document_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Add inserts the whole batch inside one transaction so a failed ingestion
// never leaves a partially indexed document behind.
func (s *pgStore) Add(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(chunks))
	for _, c := range chunks {
		rows = append(rows, map[string]interface{}{
			"id":            c.ID,
			"document_id":   c.DocumentID,
			"document_name": c.DocumentName,
			"ordinal":       c.Ordinal,
			"content":       c.Text,
			"embedding":     pgvector.NewVector(c.Embedding),
		})
	}
	sqlStr, args, err := builder.BuildInsert("document_chunks", rows)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, dbutil.Rebind(sqlStr), args...); err != nil {
		_ = tx.Rollback()
		if dbutil.IsConflict(err) {
			return fmt.Errorf("document already indexed: %s", chunks[0].DocumentID)
		}
		return fmt.Errorf("insert chunks: %w", err)
	}
	return tx.Commit()
}

func (s *pgStore) Query(ctx context.Context, vector []float32, topK int, documentID string) ([]model.Chunk, error) {
	const query = `
		SELECT id, document_id, document_name, ordinal, content
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, documentID, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()
	var result []model.Chunk
	for rows.Next() {
		var c model.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.DocumentName, &c.Ordinal, &c.Text); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *pgStore) ExistsFor(ctx context.Context, documentID string) (bool, error) {
	sqlStr, args, err := builder.BuildSelect("document_chunks",
		map[string]interface{}{"document_id": documentID, "_limit": []uint{1}},
		[]string{"id"},
	)
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}
	row := s.db.QueryRowContext(ctx, dbutil.Rebind(sqlStr), args...)
	var id string
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *pgStore) DeleteFor(ctx context.Context, documentID string) error {
	const query = `DELETE FROM document_chunks WHERE document_id = $1`
	_, err := s.db.ExecContext(ctx, query, documentID)
	return err
}

func (s *pgStore) CountDocuments(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(DISTINCT document_id) FROM document_chunks`
	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DB exposes the underlying handle so the cached-answer repository can share
// the same Postgres connection.
func (s *pgStore) DB() *sql.DB {
	return s.db
}
