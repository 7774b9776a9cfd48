package services

import (
	"context"
	"errors"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
)

// AccountService owns first-contact account creation and identity lookups.
type AccountService struct {
	accounts repositories.AccountRepository
}

func NewAccountService(accounts repositories.AccountRepository) *AccountService {
	return &AccountService{accounts: accounts}
}

// EnsureAccount finds or creates the account for a platform identity. New
// chatters get an account on their first interaction.
func (s *AccountService) EnsureAccount(ctx context.Context, platform models.Platform, externalID, username string) (*models.Account, error) {
	account, err := s.accounts.GetByPlatformID(ctx, platform, externalID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repositories.ErrAccountNotFound) {
		return nil, err
	}

	account = &models.Account{
		Username:    username,
		DisplayName: username,
	}
	switch platform {
	case models.PlatformKick:
		account.KickID = externalID
	case models.PlatformTwitch:
		account.TwitchID = externalID
	case models.PlatformDiscord:
		account.DiscordID = externalID
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
