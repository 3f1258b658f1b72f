package roles_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/flowdraft/pkg/cache"
	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls  int
	roster []models.Role
	err    error
}

func (p *countingProvider) Roles(context.Context) ([]models.Role, error) {
	p.calls++

	return p.roster, p.err
}

type listerFunc func(ctx context.Context) ([]models.Role, error)

func (f listerFunc) List(ctx context.Context) ([]models.Role, error) {
	return f(ctx)
}

func TestStatic(t *testing.T) {
	roster, err := roles.FromNames("Author", "Editor").Roles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Role{{ID: "Author", Name: "Author"}, {ID: "Editor", Name: "Editor"}}, roster)
}

func TestRepository(t *testing.T) {
	provider := roles.NewRepository(listerFunc(func(context.Context) ([]models.Role, error) {
		return []models.Role{{ID: "1", Name: "Author"}}, nil
	}))

	roster, err := provider.Roles(context.Background())
	require.NoError(t, err)
	assert.Len(t, roster, 1)

	failing := roles.NewRepository(listerFunc(func(context.Context) ([]models.Role, error) {
		return nil, errors.New("db down")
	}))

	_, err = failing.Roles(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestCached_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	next := &countingProvider{roster: []models.Role{{ID: "1", Name: "Author"}}}
	cached := roles.NewCached(slog.Default(), next, cache.NewMemory(time.Minute), time.Minute)

	first, err := cached.Roles(ctx)
	require.NoError(t, err)

	second, err := cached.Roles(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)

	require.NoError(t, cached.Invalidate(ctx))

	_, err = cached.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCached_NullCacheAlwaysDelegates(t *testing.T) {
	next := &countingProvider{roster: []models.Role{{ID: "1", Name: "Author"}}}
	cached := roles.NewCached(slog.Default(), next, cache.NewNull(), time.Minute)

	for range 3 {
		_, err := cached.Roles(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 3, next.calls)
}

func TestResolve_DegradesToEmptyRoster(t *testing.T) {
	roster := roles.Resolve(context.Background(), slog.Default(), &countingProvider{err: errors.New("boom")})
	assert.Empty(t, roster)

	assert.Nil(t, roles.Resolve(context.Background(), slog.Default(), nil))
}
