package kb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/docchat/internal/model"
	"github.com/xxxsen/docchat/internal/pkg/dbutil"
)

type pgStore struct {
	db *sql.DB
}

// NewPG builds a Postgres-backed store on an existing handle, normally the
// one already opened for the vector store.
func NewPG(ctx context.Context, db *sql.DB) (Store, error) {
	st := &pgStore{db: db}
	if err := st.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *pgStore) ensureSchema(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS document_answers (
		document_id TEXT NOT NULL,
		standard_question TEXT NOT NULL,
		answer TEXT NOT NULL,
		PRIMARY KEY (document_id, standard_question)
	)`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *pgStore) Put(ctx context.Context, entries []model.CachedAnswer) error {
	if len(entries) == 0 {
		return nil
	}
	const stmt = `
		INSERT INTO document_answers (document_id, standard_question, answer)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, standard_question) DO UPDATE SET answer = EXCLUDED.answer
	`
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, stmt, e.DocumentID, e.StandardQuestion, e.Answer); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert cached answer: %w", err)
		}
	}
	return tx.Commit()
}

func (s *pgStore) Get(ctx context.Context, documentID string) ([]model.CachedAnswer, error) {
	sqlStr, args, err := builder.BuildSelect("document_answers",
		map[string]interface{}{"document_id": documentID},
		[]string{"document_id", "standard_question", "answer"},
	)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, dbutil.Rebind(sqlStr), args...)
	if err != nil {
		return nil, fmt.Errorf("query cached answers: %w", err)
	}
	defer rows.Close()
	var result []model.CachedAnswer
	for rows.Next() {
		var e model.CachedAnswer
		if err := rows.Scan(&e.DocumentID, &e.StandardQuestion, &e.Answer); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *pgStore) DeleteFor(ctx context.Context, documentID string) error {
	const stmt = `DELETE FROM document_answers WHERE document_id = $1`
	_, err := s.db.ExecContext(ctx, stmt, documentID)
	return err
}

func (s *pgStore) Count(ctx context.Context) (int, error) {
	const stmt = `SELECT COUNT(*) FROM document_answers`
	var count int
	if err := s.db.QueryRowContext(ctx, stmt).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
