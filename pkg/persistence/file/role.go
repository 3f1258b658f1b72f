package file

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/persistence"
	"github.com/google/uuid"
)

// RoleRepository keeps the whole roster in roles.json.
type RoleRepository struct {
	mu   sync.Mutex
	root string
}

func NewRoleRepository(root string) *RoleRepository {
	return &RoleRepository{root: root}
}

func (rr *RoleRepository) path() string {
	return filepath.Join(rr.root, "roles.json")
}

func (rr *RoleRepository) List(_ context.Context) ([]models.Role, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	return rr.load()
}

// Save adds a role or renames an existing one. Names are unique ignoring case.
func (rr *RoleRepository) Save(_ context.Context, role *models.Role) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	roster, err := rr.load()
	if err != nil {
		return err
	}

	if role.ID == "" {
		role.ID = uuid.NewString()
	}

	for _, r := range roster {
		if r.ID != role.ID && strings.EqualFold(r.Name, role.Name) {
			return fmt.Errorf("%w: %s", persistence.ErrRoleAlreadyExists, role.Name)
		}
	}

	idx := slices.IndexFunc(roster, func(r models.Role) bool { return r.ID == role.ID })
	if idx >= 0 {
		roster[idx] = *role
	} else {
		roster = append(roster, *role)
	}

	return writeJSON(rr.path(), roster)
}

func (rr *RoleRepository) Delete(_ context.Context, id string) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	roster, err := rr.load()
	if err != nil {
		return err
	}

	idx := slices.IndexFunc(roster, func(r models.Role) bool { return r.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %s", persistence.ErrRoleNotFound, id)
	}

	return writeJSON(rr.path(), slices.Delete(roster, idx, idx+1))
}

func (rr *RoleRepository) load() ([]models.Role, error) {
	roster := []models.Role{}

	if _, err := readJSON(rr.path(), &roster); err != nil {
		return nil, fmt.Errorf("failed to read roles: %w", err)
	}

	return roster, nil
}
