package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
)

type stubAccounts struct {
	accounts      map[int64]*models.Account
	usernameCalls int
}

func (s *stubAccounts) Create(_ context.Context, a *models.Account) error {
	a.ID = int64(len(s.accounts) + 1)
	s.accounts[a.ID] = a
	return nil
}

func (s *stubAccounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	if a, ok := s.accounts[id]; ok {
		return a, nil
	}
	return nil, repositories.ErrAccountNotFound
}

func (s *stubAccounts) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	s.usernameCalls++
	for _, a := range s.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, repositories.ErrAccountNotFound
}

func (s *stubAccounts) GetByPlatformID(_ context.Context, platform models.Platform, externalID string) (*models.Account, error) {
	for _, a := range s.accounts {
		if platform.ExternalID(a) == externalID {
			return a, nil
		}
	}
	return nil, repositories.ErrAccountNotFound
}

func (s *stubAccounts) GetUsernames(_ context.Context) ([]repositories.NameRef, error) {
	refs := make([]repositories.NameRef, 0, len(s.accounts))
	for _, a := range s.accounts {
		refs = append(refs, repositories.NameRef{ID: a.ID, Username: a.Username, DisplayName: a.DisplayName})
	}
	return refs, nil
}

func (s *stubAccounts) GetTopByWealth(_ context.Context, _ int) ([]*models.Account, error) {
	return nil, nil
}

func (s *stubAccounts) Update(_ context.Context, _ *models.Account) error { return nil }

func (s *stubAccounts) AdjustWealth(_ context.Context, _ int64, _ int64) error { return nil }

func (s *stubAccounts) AdjustWealthTx(_ context.Context, _ bun.IDB, _ int64, _ int64) error {
	return nil
}

func (s *stubAccounts) TransferWealthTx(_ context.Context, _ bun.IDB, _, _, _ int64) error {
	return nil
}

func (s *stubAccounts) AddExperienceTx(_ context.Context, _ bun.IDB, _ int64, _ int64) (int, string, error) {
	return 1, "rookie", nil
}

func newStubAccounts() *stubAccounts {
	return &stubAccounts{accounts: map[int64]*models.Account{
		1: {ID: 1, Username: "streetghost", DisplayName: "StreetGhost", KickID: "k-100"},
		2: {ID: 2, Username: "moneymike", DisplayName: "MoneyMike", TwitchID: "t-200"},
	}}
}

func TestResolveByNumericID(t *testing.T) {
	r := NewTargetResolver(newStubAccounts())

	account, err := r.Resolve(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "moneymike", account.Username)
}

func TestResolveByExactUsername(t *testing.T) {
	r := NewTargetResolver(newStubAccounts())

	account, err := r.Resolve(context.Background(), "@streetghost")
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.ID)
}

func TestResolveFuzzy(t *testing.T) {
	r := NewTargetResolver(newStubAccounts())

	account, err := r.Resolve(context.Background(), "monymike")
	require.NoError(t, err)
	assert.Equal(t, "moneymike", account.Username)
}

func TestResolveMiss(t *testing.T) {
	r := NewTargetResolver(newStubAccounts())

	_, err := r.Resolve(context.Background(), "zzzzqqqq")
	assert.ErrorIs(t, err, repositories.ErrAccountNotFound)

	_, err = r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, repositories.ErrAccountNotFound)
}

func TestResolveCachesNames(t *testing.T) {
	stub := newStubAccounts()
	r := NewTargetResolver(stub)

	_, err := r.Resolve(context.Background(), "streetghost")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "STREETGHOST")
	require.NoError(t, err)

	// The second lookup is served from cache, case-insensitively.
	assert.Equal(t, 1, stub.usernameCalls)
}

func TestResolvePlatform(t *testing.T) {
	r := NewTargetResolver(newStubAccounts())

	account, err := r.ResolvePlatform(context.Background(), models.PlatformKick, "k-100")
	require.NoError(t, err)
	assert.Equal(t, "streetghost", account.Username)

	// Unbound identity falls back to name resolution.
	account, err = r.ResolvePlatform(context.Background(), models.PlatformTwitch, "moneymike")
	require.NoError(t, err)
	assert.Equal(t, int64(2), account.ID)
}
