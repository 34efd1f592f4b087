package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"famhelpdesk/internal/membership/models"
	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/platform/sentinel"
	txcontext "famhelpdesk/pkg/platform/tx"
)

// PostgresStore persists groups and group memberships in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const groupColumns = `id, family_id, name, description, created_by, created_at, updated_at`

const membershipColumns = `group_id, family_id, user_id, status, is_admin, requested_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, g *models.Group) error {
	query := `
		INSERT INTO groups (` + groupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		g.ID.String(), g.FamilyID.String(), g.Name, nullString(g.Description), g.CreatedBy.String(), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, familyID id.FamilyID, groupID id.GroupID) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1 AND family_id = $2`
	g, err := scanGroup(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, groupID.String(), familyID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) ListByFamily(ctx context.Context, familyID id.FamilyID) ([]*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE family_id = $1 ORDER BY created_at, id`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, familyID.String())
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []*models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Execute(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, validate func(*models.Group) error, mutate func(*models.Group)) (*models.Group, error) {
	exec := txcontext.Executor(ctx, s.db)
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1 AND family_id = $2 FOR UPDATE`
	g, err := scanGroup(exec.QueryRowContext(ctx, query, groupID.String(), familyID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock group: %w", err)
	}
	if err := validate(g); err != nil {
		return nil, err
	}
	mutate(g)

	update := `UPDATE groups SET name = $2, description = $3, updated_at = $4 WHERE id = $1`
	if _, err := exec.ExecContext(ctx, update, g.ID.String(), g.Name, nullString(g.Description), g.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return g, nil
}

// Delete removes the group. Memberships go with it through ON DELETE CASCADE.
func (s *PostgresStore) Delete(ctx context.Context, familyID id.FamilyID, groupID id.GroupID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM groups WHERE id = $1 AND family_id = $2`, groupID.String(), familyID.String())
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindMembership(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.GroupMembership, error) {
	query := `SELECT ` + membershipColumns + ` FROM group_memberships WHERE group_id = $1 AND user_id = $2`
	m, err := scanMembership(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, groupID.String(), userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find group membership: %w", err)
	}
	return m, nil
}

// ExecuteMembership follows the same lock, validate, write sequence as the
// family store, including the retry when a concurrent insert wins.
func (s *PostgresStore) ExecuteMembership(
	ctx context.Context,
	familyID id.FamilyID,
	groupID id.GroupID,
	userID id.UserID,
	validate func(*models.GroupMembership) error,
	mutate func(*models.GroupMembership),
) (*models.GroupMembership, error) {
	exec := txcontext.Executor(ctx, s.db)

	var exists bool
	check := `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1 AND family_id = $2)`
	if err := exec.QueryRowContext(ctx, check, groupID.String(), familyID.String()).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check group: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}

	lock := `SELECT ` + membershipColumns + ` FROM group_memberships WHERE group_id = $1 AND user_id = $2 FOR UPDATE`
	for attempt := 0; attempt < 2; attempt++ {
		current, err := scanMembership(exec.QueryRowContext(ctx, lock, groupID.String(), userID.String()))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lock group membership: %w", err)
		}
		if err := validate(current); err != nil {
			return nil, err
		}

		working := models.NewGroupMembership(familyID, groupID, userID)
		if current != nil {
			*working = *current
		}
		mutate(working)

		if current != nil {
			update := `
				UPDATE group_memberships
				SET status = $4, is_admin = $5, requested_at = $6, updated_at = $7
				WHERE group_id = $1 AND family_id = $2 AND user_id = $3
			`
			if _, err := exec.ExecContext(ctx, update, membershipArgs(working)...); err != nil {
				return nil, fmt.Errorf("update group membership: %w", err)
			}
			return working, nil
		}

		insert := `
			INSERT INTO group_memberships (` + membershipColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (group_id, user_id) DO NOTHING
		`
		res, err := exec.ExecContext(ctx, insert, membershipArgs(working)...)
		if err != nil {
			return nil, fmt.Errorf("insert group membership: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("insert group membership: %w", err)
		}
		if n == 1 {
			return working, nil
		}
	}
	return nil, sentinel.ErrConflict
}

// DeleteMembership locks the row, lets validate inspect it, then deletes it.
func (s *PostgresStore) DeleteMembership(ctx context.Context, groupID id.GroupID, userID id.UserID, validate func(*models.GroupMembership) error) (*models.GroupMembership, error) {
	exec := txcontext.Executor(ctx, s.db)
	lock := `SELECT ` + membershipColumns + ` FROM group_memberships WHERE group_id = $1 AND user_id = $2 FOR UPDATE`
	m, err := scanMembership(exec.QueryRowContext(ctx, lock, groupID.String(), userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock group membership: %w", err)
	}
	if err := validate(m); err != nil {
		return nil, err
	}
	if _, err := exec.ExecContext(ctx,
		`DELETE FROM group_memberships WHERE group_id = $1 AND user_id = $2`, groupID.String(), userID.String()); err != nil {
		return nil, fmt.Errorf("delete group membership: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListMemberships(ctx context.Context, groupID id.GroupID, status models.Status) ([]*models.GroupMembership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM group_memberships
		WHERE group_id = $1 AND status = $2
		ORDER BY requested_at, user_id
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, groupID.String(), string(status))
	if err != nil {
		return nil, fmt.Errorf("list group memberships: %w", err)
	}
	defer rows.Close()

	var out []*models.GroupMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group membership: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group memberships: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListAdmins(ctx context.Context, groupID id.GroupID) ([]id.UserID, error) {
	query := `
		SELECT user_id FROM group_memberships
		WHERE group_id = $1 AND status = 'MEMBER' AND is_admin
		ORDER BY requested_at, user_id
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, groupID.String())
	if err != nil {
		return nil, fmt.Errorf("list group admins: %w", err)
	}
	defer rows.Close()

	var out []id.UserID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan group admin: %w", err)
		}
		out = append(out, id.UserID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group admins: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]models.MyGroup, error) {
	query := `
		SELECT g.id, g.family_id, g.name, g.description, g.created_by, g.created_at, g.updated_at,
		       m.group_id, m.family_id, m.user_id, m.status, m.is_admin, m.requested_at, m.updated_at
		FROM group_memberships m
		JOIN groups g ON g.id = m.group_id
		WHERE m.user_id = $1 AND m.status IN ('MEMBER', 'AWAITING')
		ORDER BY g.created_at, g.id
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list user groups: %w", err)
	}
	defer rows.Close()

	var out []models.MyGroup
	for rows.Next() {
		var (
			gr groupRow
			mr membershipRow
		)
		if err := rows.Scan(gr.dest(mr.dest()...)...); err != nil {
			return nil, fmt.Errorf("scan user group: %w", err)
		}
		out = append(out, models.MyGroup{Group: gr.model(), Membership: mr.model()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user groups: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

type groupRow struct {
	id, familyID, createdBy uuid.UUID
	description             sql.NullString
	g                       models.Group
}

func (r *groupRow) dest(extra ...any) []any {
	return append([]any{&r.id, &r.familyID, &r.g.Name, &r.description, &r.createdBy, &r.g.CreatedAt, &r.g.UpdatedAt}, extra...)
}

func (r *groupRow) model() *models.Group {
	g := r.g
	g.ID = id.GroupID(r.id)
	g.FamilyID = id.FamilyID(r.familyID)
	g.Description = r.description.String
	g.CreatedBy = id.UserID(r.createdBy)
	return &g
}

type membershipRow struct {
	groupID, familyID, userID uuid.UUID
	status                    string
	m                         models.GroupMembership
}

func (r *membershipRow) dest() []any {
	return []any{&r.groupID, &r.familyID, &r.userID, &r.status, &r.m.IsAdmin, &r.m.RequestedAt, &r.m.UpdatedAt}
}

func (r *membershipRow) model() *models.GroupMembership {
	m := r.m
	m.GroupID = id.GroupID(r.groupID)
	m.FamilyID = id.FamilyID(r.familyID)
	m.UserID = id.UserID(r.userID)
	m.Status = models.Status(r.status)
	return &m
}

func scanGroup(row scanner) (*models.Group, error) {
	var r groupRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.model(), nil
}

func scanMembership(row scanner) (*models.GroupMembership, error) {
	var r membershipRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.model(), nil
}

func membershipArgs(m *models.GroupMembership) []any {
	return []any{m.GroupID.String(), m.FamilyID.String(), m.UserID.String(), string(m.Status), m.IsAdmin, m.RequestedAt, m.UpdatedAt}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
