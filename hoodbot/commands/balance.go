package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/hoodline/hoodbot/hoodbot"
	"github.com/hoodline/hoodbot/hoodbot/config"
	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/game/progression"
	"github.com/hoodline/hoodbot/hoodbot/utils"
)

func BalanceHandler(b *hoodbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		account, err := b.Accounts.EnsureAccount(ctx, models.PlatformDiscord, e.User().ID.String(), e.User().Username)
		if err != nil {
			return respondError(e, "Failed to fetch your balance. Please try again later.")
		}

		stats, err := b.Leaderboard.StatsFor(ctx, account.ID)
		if err != nil {
			return respondError(e, "Failed to fetch your stats. Please try again later.")
		}

		nextLevel := progression.ExperienceForLevel(account.Level + 1)
		xpBar := createProgressBar(account.Experience, nextLevel)

		description := fmt.Sprintf("```ansi\n"+
			"\x1b[1;36mWealth:\x1b[0m $%s\n"+
			"\x1b[1;35mLevel:\x1b[0m %d (%s)\n"+
			"\x1b[0;37m%s\x1b[0m\n"+
			"\n"+
			"\x1b[1;33mRobberies:\x1b[0m %d/%d pulled off\n"+
			"\x1b[1;33mStolen:\x1b[0m $%s\n"+
			"\x1b[1;31mLost to robbers:\x1b[0m $%s\n"+
			"```",
			utils.FormatNumber(account.Wealth),
			account.Level,
			account.Tier,
			xpBar,
			stats.RobSuccesses,
			stats.RobAttempts,
			utils.FormatNumber(stats.WealthStolen),
			utils.FormatNumber(stats.WealthLost),
		)

		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "💰 Street Standing",
				Description: description,
				Color:       config.SuccessColor,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("Requested by %s", e.User().Username),
				},
				Timestamp: &now,
			}},
		})
	}
}

func createProgressBar(current, target int64) string {
	const barLength = 10

	progress := 1.0
	if target > 0 {
		progress = float64(current) / float64(target)
	}
	if progress > 1.0 {
		progress = 1.0
	}
	filled := int(progress * float64(barLength))

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < barLength; i++ {
		if i < filled {
			bar.WriteString("■")
		} else {
			bar.WriteString("□")
		}
	}
	bar.WriteString(fmt.Sprintf("] %s/%s XP", utils.FormatNumber(current), utils.FormatNumber(target)))

	return bar.String()
}
