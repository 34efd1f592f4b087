package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"famhelpdesk/internal/profile/models"
	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/platform/sentinel"
	txcontext "famhelpdesk/pkg/platform/tx"
)

// PostgresStore persists profiles in PostgreSQL. Writes join the transaction
// carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `user_id, display_name, nick_name, email, created_at, updated_at`

// Create inserts p, or returns sentinel.ErrAlreadyUsed when a concurrent
// request created the user's profile first.
func (s *PostgresStore) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO user_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING
	`
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		p.UserID.String(), p.DisplayName, p.NickName, nullString(p.Email), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1`
	p, err := scanProfile(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

// Execute locks the row, applies mutate and writes the result back.
func (s *PostgresStore) Execute(ctx context.Context, userID id.UserID, mutate func(*models.Profile) error) (*models.Profile, error) {
	exec := txcontext.Executor(ctx, s.db)
	lock := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1 FOR UPDATE`
	p, err := scanProfile(exec.QueryRowContext(ctx, lock, userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock profile: %w", err)
	}
	if err := mutate(p); err != nil {
		return nil, err
	}
	update := `
		UPDATE user_profiles
		SET display_name = $2, nick_name = $3, updated_at = $4
		WHERE user_id = $1
	`
	if _, err := exec.ExecContext(ctx, update, p.UserID.String(), p.DisplayName, p.NickName, p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*models.Profile, error) {
	var (
		userID uuid.UUID
		email  sql.NullString
		p      models.Profile
	)
	if err := row.Scan(&userID, &p.DisplayName, &p.NickName, &email, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.UserID = id.UserID(userID)
	p.Email = email.String
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
