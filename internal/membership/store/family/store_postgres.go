package family

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

// PostgresStore persists families and family memberships in PostgreSQL.
// Writes join the transaction carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const familyColumns = `id, name, description, created_by, created_at, updated_at`

const membershipColumns = `family_id, user_id, status, is_admin, requested_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, f *models.Family) error {
	query := `
		INSERT INTO families (` + familyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		f.ID.String(), f.Name, nullString(f.Description), f.CreatedBy.String(), f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert family: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, familyID id.FamilyID) (*models.Family, error) {
	query := `SELECT ` + familyColumns + ` FROM families WHERE id = $1`
	f, err := scanFamily(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, familyID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find family: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Family, error) {
	query := `SELECT ` + familyColumns + ` FROM families ORDER BY created_at, id`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var out []*models.Family
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate families: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Execute(ctx context.Context, familyID id.FamilyID, validate func(*models.Family) error, mutate func(*models.Family)) (*models.Family, error) {
	exec := txcontext.Executor(ctx, s.db)
	query := `SELECT ` + familyColumns + ` FROM families WHERE id = $1 FOR UPDATE`
	f, err := scanFamily(exec.QueryRowContext(ctx, query, familyID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock family: %w", err)
	}
	if err := validate(f); err != nil {
		return nil, err
	}
	mutate(f)

	update := `UPDATE families SET name = $2, description = $3, updated_at = $4 WHERE id = $1`
	if _, err := exec.ExecContext(ctx, update, f.ID.String(), f.Name, nullString(f.Description), f.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update family: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) FindMembership(ctx context.Context, familyID id.FamilyID, userID id.UserID) (*models.FamilyMembership, error) {
	query := `SELECT ` + membershipColumns + ` FROM family_memberships WHERE family_id = $1 AND user_id = $2`
	m, err := scanMembership(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, familyID.String(), userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find family membership: %w", err)
	}
	return m, nil
}

// ExecuteMembership locks the (family, user) row with SELECT ... FOR UPDATE,
// validates and mutates it, then writes it back. When the row does not exist
// it is inserted with ON CONFLICT DO NOTHING; losing that race re-reads the
// now locked row and validates again, so a concurrent request sees the
// winner's state instead of creating a second row.
func (s *PostgresStore) ExecuteMembership(
	ctx context.Context,
	familyID id.FamilyID,
	userID id.UserID,
	validate func(*models.FamilyMembership) error,
	mutate func(*models.FamilyMembership),
) (*models.FamilyMembership, error) {
	exec := txcontext.Executor(ctx, s.db)

	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM families WHERE id = $1)`, familyID.String()).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check family: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}

	lock := `SELECT ` + membershipColumns + ` FROM family_memberships WHERE family_id = $1 AND user_id = $2 FOR UPDATE`
	for attempt := 0; attempt < 2; attempt++ {
		current, err := scanMembership(exec.QueryRowContext(ctx, lock, familyID.String(), userID.String()))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lock family membership: %w", err)
		}
		if err := validate(current); err != nil {
			return nil, err
		}

		working := models.NewFamilyMembership(familyID, userID)
		if current != nil {
			*working = *current
		}
		mutate(working)

		if current != nil {
			update := `
				UPDATE family_memberships
				SET status = $3, is_admin = $4, requested_at = $5, updated_at = $6
				WHERE family_id = $1 AND user_id = $2
			`
			if _, err := exec.ExecContext(ctx, update, membershipArgs(working)...); err != nil {
				return nil, fmt.Errorf("update family membership: %w", err)
			}
			return working, nil
		}

		insert := `
			INSERT INTO family_memberships (` + membershipColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (family_id, user_id) DO NOTHING
		`
		res, err := exec.ExecContext(ctx, insert, membershipArgs(working)...)
		if err != nil {
			return nil, fmt.Errorf("insert family membership: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("insert family membership: %w", err)
		}
		if n == 1 {
			return working, nil
		}
	}
	return nil, sentinel.ErrConflict
}

func (s *PostgresStore) ListMemberships(ctx context.Context, familyID id.FamilyID, status models.Status) ([]*models.FamilyMembership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM family_memberships
		WHERE family_id = $1 AND status = $2
		ORDER BY requested_at, user_id
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, familyID.String(), string(status))
	if err != nil {
		return nil, fmt.Errorf("list family memberships: %w", err)
	}
	defer rows.Close()

	var out []*models.FamilyMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family membership: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate family memberships: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListAdmins(ctx context.Context, familyID id.FamilyID) ([]id.UserID, error) {
	query := `
		SELECT user_id FROM family_memberships
		WHERE family_id = $1 AND status = 'MEMBER' AND is_admin
		ORDER BY requested_at, user_id
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, familyID.String())
	if err != nil {
		return nil, fmt.Errorf("list family admins: %w", err)
	}
	defer rows.Close()

	var out []id.UserID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan family admin: %w", err)
		}
		out = append(out, id.UserID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate family admins: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]models.MyFamily, error) {
	query := `
		SELECT f.id, f.name, f.description, f.created_by, f.created_at, f.updated_at,
		       m.family_id, m.user_id, m.status, m.is_admin, m.requested_at, m.updated_at
		FROM family_memberships m
		JOIN families f ON f.id = m.family_id
		WHERE m.user_id = $1 AND m.status IN ('MEMBER', 'AWAITING')
		ORDER BY f.created_at, f.id
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list user families: %w", err)
	}
	defer rows.Close()

	var out []models.MyFamily
	for rows.Next() {
		var (
			fr familyRow
			mr membershipRow
		)
		if err := rows.Scan(fr.dest(mr.dest()...)...); err != nil {
			return nil, fmt.Errorf("scan user family: %w", err)
		}
		out = append(out, models.MyFamily{Family: fr.model(), Membership: mr.model()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user families: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

type familyRow struct {
	id, createdBy uuid.UUID
	name          string
	description   sql.NullString
	models.Family
}

func (r *familyRow) dest(extra ...any) []any {
	return append([]any{&r.id, &r.name, &r.description, &r.createdBy, &r.CreatedAt, &r.UpdatedAt}, extra...)
}

func (r *familyRow) model() *models.Family {
	f := r.Family
	f.ID = id.FamilyID(r.id)
	f.Name = r.name
	f.Description = r.description.String
	f.CreatedBy = id.UserID(r.createdBy)
	return &f
}

type membershipRow struct {
	familyID, userID uuid.UUID
	status           string
	m                models.FamilyMembership
}

func (r *membershipRow) dest() []any {
	return []any{&r.familyID, &r.userID, &r.status, &r.m.IsAdmin, &r.m.RequestedAt, &r.m.UpdatedAt}
}

func (r *membershipRow) model() *models.FamilyMembership {
	m := r.m
	m.FamilyID = id.FamilyID(r.familyID)
	m.UserID = id.UserID(r.userID)
	m.Status = models.Status(r.status)
	return &m
}

func scanFamily(row scanner) (*models.Family, error) {
	var r familyRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.model(), nil
}

// scanMembership returns (nil, sql.ErrNoRows) when the row is absent.
func scanMembership(row scanner) (*models.FamilyMembership, error) {
	var r membershipRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.model(), nil
}

func membershipArgs(m *models.FamilyMembership) []any {
	return []any{m.FamilyID.String(), m.UserID.String(), string(m.Status), m.IsAdmin, m.RequestedAt, m.UpdatedAt}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
