// Package roles supplies the role roster graph validation checks step roles against.
package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowdraft/pkg/cache"
	"github.com/dukex/flowdraft/pkg/models"
)

// Provider returns the current roster.
type Provider interface {
	Roles(ctx context.Context) ([]models.Role, error)
}

// Lister is the read side of a role repository.
type Lister interface {
	List(ctx context.Context) ([]models.Role, error)
}

// Static serves a fixed roster.
type Static []models.Role

func (s Static) Roles(context.Context) ([]models.Role, error) {
	return append([]models.Role(nil), s...), nil
}

// FromNames builds a static roster.
func FromNames(names ...string) Static {
	roster := make(Static, 0, len(names))
	for _, name := range names {
		roster = append(roster, models.Role{ID: name, Name: name})
	}

	return roster
}

// Repository reads the roster from persistence on every call.
type Repository struct {
	lister Lister
}

func NewRepository(lister Lister) *Repository {
	return &Repository{lister: lister}
}

func (r *Repository) Roles(ctx context.Context) ([]models.Role, error) {
	roster, err := r.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roster, nil
}

const cacheKey = "roles:roster"

// Cached keeps a JSON copy of another provider's roster in a cache.Cache.
// Cache failures fall through to the wrapped provider.
type Cached struct {
	next   Provider
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(logger *slog.Logger, next Provider, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logger.With("module", "roles_cache"),
	}
}

func (c *Cached) Roles(ctx context.Context) ([]models.Role, error) {
	data, ok, err := c.cache.Get(ctx, cacheKey)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to read cached roster", "error", err)
	}

	if ok {
		var roster []models.Role
		if err := json.Unmarshal(data, &roster); err == nil {
			return roster, nil
		}

		c.logger.WarnContext(ctx, "Discarding unreadable cached roster")
	}

	roster, err := c.next.Roles(ctx)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(roster)
	if err == nil {
		err = c.cache.Set(ctx, cacheKey, data, c.ttl)
	}

	if err != nil {
		c.logger.WarnContext(ctx, "Failed to cache roster", "error", err)
	}

	return roster, nil
}

// Invalidate drops the cached roster, used after role changes.
func (c *Cached) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, cacheKey)
}

// Resolve fetches the roster for validation. Provider errors degrade to an
// empty roster, which reduces the role check to non-empty and not Unassigned.
func Resolve(ctx context.Context, logger *slog.Logger, p Provider) []models.Role {
	if p == nil {
		return nil
	}

	roster, err := p.Roles(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Role roster unavailable, validating without it", "error", err)

		return nil
	}

	return roster
}
