package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/persistence"
)

// RosterInvalidator drops a cached roster after role changes.
type RosterInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Role manages the roster graph steps are assigned to.
type Role struct {
	persistence persistence.Persistence
	invalidator RosterInvalidator
	options
}

// NewRole creates a role service. invalidator may be nil.
func NewRole(persistence persistence.Persistence, invalidator RosterInvalidator, opts ...Option) *Role {
	return &Role{
		persistence: persistence,
		invalidator: invalidator,
		options:     newOptions("role_service", opts),
	}
}

func (r *Role) List(ctx context.Context) ([]models.Role, error) {
	roster, err := r.persistence.RoleRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roster, nil
}

func (r *Role) Create(ctx context.Context, name string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, models.UnassignedRole) {
		return nil, NewValidationError("CreateRole", "INVALID_ROLE_NAME",
			fmt.Sprintf("role name %q is not allowed", name), ErrInvalidRequest)
	}

	role := &models.Role{Name: name}

	if err := r.persistence.RoleRepository().Save(ctx, role); err != nil {
		return nil, err
	}

	r.invalidate(ctx)

	return role, nil
}

func (r *Role) Delete(ctx context.Context, id string) error {
	if err := r.persistence.RoleRepository().Delete(ctx, id); err != nil {
		return err
	}

	r.invalidate(ctx)

	return nil
}

func (r *Role) invalidate(ctx context.Context) {
	if r.invalidator == nil {
		return
	}

	if err := r.invalidator.Invalidate(ctx); err != nil {
		r.logger.WarnContext(ctx, "failed to invalidate cached roster", "error", err)
	}
}
