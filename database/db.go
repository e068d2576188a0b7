package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "docchat/errors"
	"docchat/web/types"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{DB: db}, nil
}

// EnsureSchema creates the required tables if they do not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stores (
            id TEXT PRIMARY KEY,
            filename TEXT NOT NULL,
            file_path TEXT NOT NULL,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW(),
            last_active TIMESTAMPTZ DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_stores_last_active ON stores(last_active)`,
		`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            store_id TEXT REFERENCES stores(id) ON DELETE CASCADE,
            role TEXT NOT NULL,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_messages_store_created_at ON messages(store_id, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return apperrors.WrapError(apperrors.ErrDatabaseOperation, fmt.Sprintf("failed to execute schema statement: %v", err))
		}
	}
	return nil
}

func (s *PostgresStore) SaveStore(ctx context.Context, rec types.StoreRecord) error {
	query := `
		INSERT INTO stores (id, filename, file_path, content, created_at, last_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET filename = EXCLUDED.filename, file_path = EXCLUDED.file_path,
		    content = EXCLUDED.content, last_active = EXCLUDED.last_active
	`
	_, err := s.DB.ExecContext(ctx, query, rec.ID, rec.Filename, rec.FilePath, rec.Content, rec.CreatedAt, rec.LastActive)
	if err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetStore(ctx context.Context, id string) (types.StoreRecord, error) {
	var rec types.StoreRecord
	query := `SELECT id, filename, file_path, content, created_at, last_active FROM stores WHERE id = $1`
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Filename, &rec.FilePath, &rec.Content, &rec.CreatedAt, &rec.LastActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StoreRecord{}, apperrors.WrapErrorf(apperrors.ErrNotFound, "store %s", id)
		}
		return types.StoreRecord{}, fmt.Errorf("failed to get store: %w", err)
	}

	messages, err := s.getMessages(ctx, id)
	if err != nil {
		return types.StoreRecord{}, err
	}
	rec.Messages = messages
	return rec, nil
}

func (s *PostgresStore) getMessages(ctx context.Context, storeID string) ([]types.ChatMessage, error) {
	query := `
		SELECT role, content, created_at FROM messages
		WHERE store_id = $1 ORDER BY created_at ASC, id ASC
	`
	rows, err := s.DB.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []types.ChatMessage
	for rows.Next() {
		var msg types.ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *PostgresStore) DeleteStore(ctx context.Context, id string) (types.StoreRecord, error) {
	var rec types.StoreRecord
	query := `DELETE FROM stores WHERE id = $1 RETURNING id, filename, file_path, created_at, last_active`
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Filename, &rec.FilePath, &rec.CreatedAt, &rec.LastActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StoreRecord{}, apperrors.WrapErrorf(apperrors.ErrNotFound, "store %s", id)
		}
		return types.StoreRecord{}, fmt.Errorf("failed to delete store: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListStores(ctx context.Context) ([]types.StoreInfo, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, filename FROM stores ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	stores := []types.StoreInfo{}
	for rows.Next() {
		var info types.StoreInfo
		if err := rows.Scan(&info.StoreID, &info.Filename); err != nil {
			return nil, err
		}
		stores = append(stores, info)
	}
	return stores, rows.Err()
}

func (s *PostgresStore) AppendMessages(ctx context.Context, id string, msgs ...types.ChatMessage) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `UPDATE stores SET last_active = $1 WHERE id = $2`, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.WrapErrorf(apperrors.ErrNotFound, "store %s", id)
	}

	query := `INSERT INTO messages (store_id, role, content, created_at) VALUES ($1, $2, $3, $4)`
	for _, msg := range msgs {
		createdAt := msg.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx, query, id, msg.Role, msg.Content, createdAt); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) GetStaleStores(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id FROM stores WHERE last_active < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale stores: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
