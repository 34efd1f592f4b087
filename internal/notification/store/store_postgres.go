package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"famhelpdesk/internal/notification/models"
	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/platform/sentinel"
	txcontext "famhelpdesk/pkg/platform/tx"
)

// PostgresStore persists notifications in PostgreSQL. Sequence numbers come
// from the seq BIGSERIAL column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const columns = `id, seq, user_id, type, title, message, data, viewed, created_at`

func (s *PostgresStore) Insert(ctx context.Context, notifications []*models.Notification) error {
	exec := txcontext.Executor(ctx, s.db)
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, data, viewed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`
	for _, n := range notifications {
		var data sql.NullString
		if len(n.Data) > 0 {
			raw, err := json.Marshal(n.Data)
			if err != nil {
				return fmt.Errorf("marshal notification data: %w", err)
			}
			data = sql.NullString{String: string(raw), Valid: true}
		}
		err := exec.QueryRowContext(ctx, query,
			n.ID.String(), n.UserID.String(), string(n.Type), n.Title, n.Message, data, n.Viewed, n.CreatedAt,
		).Scan(&n.Seq)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID id.UserID, q models.Query) ([]*models.Notification, error) {
	query := `
		SELECT ` + columns + `
		FROM notifications
		WHERE user_id = $1
		  AND ($2::bigint = 0 OR seq < $2)
		  AND ($3::int = 0 OR ($3 = 1 AND NOT viewed) OR ($3 = 2 AND viewed))
		ORDER BY seq DESC
		LIMIT $4
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, userID.String(), q.BeforeSeq, int(q.Filter), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

// MarkViewed is idempotent: an already viewed row is returned unchanged.
func (s *PostgresStore) MarkViewed(ctx context.Context, userID id.UserID, notificationID id.NotificationID) (*models.Notification, error) {
	query := `
		UPDATE notifications SET viewed = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING ` + columns
	n, err := scanNotification(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, notificationID.String(), userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark notification viewed: %w", err)
	}
	return n, nil
}

// MarkAllViewed reads the watermark and applies it in one statement. Rows
// committed after the statement's snapshot keep viewed = false.
func (s *PostgresStore) MarkAllViewed(ctx context.Context, userID id.UserID) (int, error) {
	query := `
		UPDATE notifications SET viewed = TRUE
		WHERE user_id = $1 AND NOT viewed
		  AND seq <= (SELECT COALESCE(MAX(seq), 0) FROM notifications)`
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, userID.String())
	if err != nil {
		return 0, fmt.Errorf("mark all notifications viewed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications viewed: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) CountUnread(ctx context.Context, userID id.UserID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT viewed`
	if err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, userID.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(row scanner) (*models.Notification, error) {
	var (
		n              models.Notification
		notifID, owner uuid.UUID
		typ            string
		data           []byte
	)
	if err := row.Scan(&notifID, &n.Seq, &owner, &typ, &n.Title, &n.Message, &data, &n.Viewed, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.ID = id.NotificationID(notifID)
	n.UserID = id.UserID(owner)
	n.Type = models.Type(typ)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("decode notification data: %w", err)
		}
	}
	return &n, nil
}
