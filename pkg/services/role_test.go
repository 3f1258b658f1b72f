package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/flowdraft/pkg/cache"
	"github.com/dukex/flowdraft/pkg/persistence/file"
	"github.com/dukex/flowdraft/pkg/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_CreateListDelete(t *testing.T) {
	service := NewRole(file.NewPersistence(t.TempDir()), nil)

	author, err := service.Create(t.Context(), " Author ")
	require.NoError(t, err)
	assert.Equal(t, "Author", author.Name)
	assert.NotEmpty(t, author.ID)

	_, err = service.Create(t.Context(), "author")
	assert.ErrorIs(t, err, ErrRoleAlreadyExists)
	assert.True(t, IsConflictError(err))

	roster, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, roster, 1)

	require.NoError(t, service.Delete(t.Context(), author.ID))

	err = service.Delete(t.Context(), author.ID)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestRole_CreateRejectsPlaceholder(t *testing.T) {
	service := NewRole(file.NewPersistence(t.TempDir()), nil)

	for _, name := range []string{"", "  ", "unassigned"} {
		_, err := service.Create(t.Context(), name)
		assert.True(t, IsValidationError(err), name)
	}
}

func TestRole_CreateInvalidatesCachedRoster(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	memory := cache.NewMemory(time.Minute)
	cached := roles.NewCached(slog.Default(), roles.NewRepository(persistence.RoleRepository()), memory, time.Minute)
	service := NewRole(persistence, cached)

	_, err := service.Create(t.Context(), "Author")
	require.NoError(t, err)

	roster, err := cached.Roles(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 1)

	_, err = service.Create(t.Context(), "Editor")
	require.NoError(t, err)

	roster, err = cached.Roles(context.Background())
	require.NoError(t, err)
	assert.Len(t, roster, 2)
}
