package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/hoodline/hoodbot/hoodbot/config"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
	"github.com/hoodline/hoodbot/hoodbot/game/robbery"
	"github.com/hoodline/hoodbot/hoodbot/utils"
)

// DMNotifier delivers robbery outcomes to victims over Discord DMs.
// Accounts without a linked Discord identity are silently skipped.
type DMNotifier struct {
	client   bot.Client
	accounts repositories.AccountRepository
}

func NewDMNotifier(client bot.Client, accounts repositories.AccountRepository) *DMNotifier {
	return &DMNotifier{client: client, accounts: accounts}
}

var _ robbery.Notifier = (*DMNotifier)(nil)

func (n *DMNotifier) NotifyRobbed(ctx context.Context, accountID int64, attackerName string, amountLost int64, itemLostName string) error {
	desc := fmt.Sprintf("**%s** robbed you for **$%s**.", attackerName, utils.FormatNumber(amountLost))
	if itemLostName != "" {
		desc += fmt.Sprintf(" They also took your **%s**.", itemLostName)
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("🚨 You Got Robbed").
		SetDescription(desc).
		SetColor(config.ErrorColor).
		Build()

	return n.sendDM(ctx, accountID, embed)
}

func (n *DMNotifier) NotifyDefended(ctx context.Context, accountID int64, attackerName string) error {
	embed := discord.NewEmbedBuilder().
		SetTitle("🛡️ Robbery Defended").
		SetDescription(fmt.Sprintf("**%s** tried to rob you and walked away with nothing.", attackerName)).
		SetColor(config.SuccessColor).
		Build()

	return n.sendDM(ctx, accountID, embed)
}

func (n *DMNotifier) sendDM(ctx context.Context, accountID int64, embed discord.Embed) error {
	account, err := n.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.DiscordID == "" {
		return nil
	}

	userID, err := snowflake.Parse(account.DiscordID)
	if err != nil {
		return fmt.Errorf("account %d has malformed discord id %q: %w", accountID, account.DiscordID, err)
	}

	dmChannel, err := n.client.Rest().CreateDMChannel(userID)
	if err != nil {
		slog.Error("Failed to create DM channel",
			slog.String("type", "notify"),
			slog.Int64("account_id", accountID),
			slog.String("error", err.Error()))
		return err
	}

	_, err = n.client.Rest().CreateMessage(dmChannel.ID(), discord.MessageCreate{
		Embeds: []discord.Embed{embed},
	})
	return err
}

// ChannelFeed posts notable events to a public channel.
type ChannelFeed struct {
	client    bot.Client
	channelID snowflake.ID
}

func NewChannelFeed(client bot.Client, channelID snowflake.ID) *ChannelFeed {
	return &ChannelFeed{client: client, channelID: channelID}
}

var _ robbery.Feed = (*ChannelFeed)(nil)

func (f *ChannelFeed) PostItemTheft(_ context.Context, attackerName, defenderName, itemName string, itemTier int) error {
	stars := ""
	for i := 0; i < itemTier; i++ {
		stars += "★"
	}

	_, err := f.client.Rest().CreateMessage(f.channelID, discord.NewMessageCreateBuilder().
		SetContentf("💰 **%s** just lifted %s **%s** off **%s**!", attackerName, stars, itemName, defenderName).
		Build())
	if err != nil {
		slog.Error("Failed to post to feed channel",
			slog.String("type", "notify"),
			slog.String("error", err.Error()))
	}
	return err
}
