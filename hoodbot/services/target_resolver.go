package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"

	"github.com/hoodline/hoodbot/hoodbot/config"
	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
)

// nameSource adapts the username list to fuzzy.Source.
type nameSource []repositories.NameRef

func (s nameSource) Len() int { return len(s) }

func (s nameSource) String(i int) string { return strings.ToLower(s[i].Username) }

type cachedTarget struct {
	accountID int64
	cachedAt  time.Time
}

// TargetResolver turns a free-text identifier from chat into an account.
// Resolution order: numeric account id, exact username, fuzzy username
// match. Resolved names are cached so spammy chat commands do not hammer
// the accounts table.
type TargetResolver struct {
	accounts    repositories.AccountRepository
	cache       *lru.Cache
	cacheExpiry time.Duration
}

func NewTargetResolver(accounts repositories.AccountRepository) *TargetResolver {
	cache, _ := lru.New(config.NameCacheSize)
	return &TargetResolver{
		accounts:    accounts,
		cache:       cache,
		cacheExpiry: config.CacheExpiration,
	}
}

// Resolve finds the account an identifier points at. A miss returns
// repositories.ErrAccountNotFound.
func (r *TargetResolver) Resolve(ctx context.Context, identifier string) (*models.Account, error) {
	identifier = strings.TrimSpace(strings.TrimPrefix(identifier, "@"))
	if identifier == "" {
		return nil, repositories.ErrAccountNotFound
	}

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return r.accounts.GetByID(ctx, id)
	}

	key := strings.ToLower(identifier)
	if v, ok := r.cache.Get(key); ok {
		cached := v.(cachedTarget)
		if time.Since(cached.cachedAt) < r.cacheExpiry {
			return r.accounts.GetByID(ctx, cached.accountID)
		}
		r.cache.Remove(key)
	}

	account, err := r.accounts.GetByUsername(ctx, identifier)
	if err == nil {
		r.cache.Add(key, cachedTarget{accountID: account.ID, cachedAt: time.Now()})
		return account, nil
	}

	return r.resolveFuzzy(ctx, key)
}

// ResolvePlatform looks up the account bound to a platform identity,
// falling back to free-text resolution of the raw identifier.
func (r *TargetResolver) ResolvePlatform(ctx context.Context, platform models.Platform, externalID string) (*models.Account, error) {
	if platform.Valid() && externalID != "" {
		if account, err := r.accounts.GetByPlatformID(ctx, platform, externalID); err == nil {
			return account, nil
		}
	}
	return r.Resolve(ctx, externalID)
}

func (r *TargetResolver) resolveFuzzy(ctx context.Context, query string) (*models.Account, error) {
	names, err := r.accounts.GetUsernames(ctx)
	if err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(query, nameSource(names))
	if len(matches) == 0 {
		return nil, repositories.ErrAccountNotFound
	}

	// Matches come back sorted by relevance; take the best one.
	best := names[matches[0].Index]
	r.cache.Add(query, cachedTarget{accountID: best.ID, cachedAt: time.Now()})
	return r.accounts.GetByID(ctx, best.ID)
}
