package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/persistence"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type RoleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRoleRepository(db *sql.DB, logger *slog.Logger) *RoleRepository {
	return &RoleRepository{db: db, logger: logger}
}

func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM roles ORDER BY LOWER(name)")
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	roster := make([]models.Role, 0)

	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}

		roster = append(roster, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roster, nil
}

func (r *RoleRepository) Save(ctx context.Context, role *models.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, role.ID, role.Name)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", persistence.ErrRoleAlreadyExists, role.Name)
	}

	if err != nil {
		return fmt.Errorf("failed to save role: %w", err)
	}

	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", persistence.ErrRoleNotFound, id)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM roles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete role %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete role %s: %w", id, err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", persistence.ErrRoleNotFound, id)
	}

	return nil
}
