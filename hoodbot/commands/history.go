package commands

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/hoodline/hoodbot/hoodbot"
	"github.com/hoodline/hoodbot/hoodbot/config"
	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/utils"
)

const historyFetchLimit = 200

func HistoryHandler(b *hoodbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		account, err := b.Accounts.EnsureAccount(ctx, models.PlatformDiscord, e.User().ID.String(), e.User().Username)
		if err != nil {
			return respondError(e, "Could not load your account. Try again later.")
		}

		events, err := b.AuditRepository.ListByAccount(ctx, account.ID, historyFetchLimit, 0)
		if err != nil {
			return respondError(e, "Could not load your history. Try again later.")
		}
		if len(events) == 0 {
			return respondWarning(e, "Nothing on your record yet. Keep it that way, or don't.")
		}

		totalPages := int(math.Ceil(float64(len(events)) / float64(config.EventsPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * config.EventsPerPage
				endIdx := min(startIdx+config.EventsPerPage, len(events))

				var description strings.Builder
				for _, ev := range events[startIdx:endIdx] {
					description.WriteString(fmt.Sprintf("%s <t:%d:R>\n%s\n\n",
						eventIcon(ev.Type), ev.CreatedAt.Unix(), ev.Description))
				}

				embed.
					SetTitle("📜 Street Record").
					SetDescription(description.String()).
					SetColor(config.EmbedDefaultColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d events", page+1, totalPages, len(events)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func eventIcon(eventType string) string {
	switch eventType {
	case models.AuditRobberyCommitted:
		return "💰"
	case models.AuditRobberyFailed:
		return "🚔"
	case models.AuditRobberySuffered:
		return "🔫"
	case models.AuditRobberyDefended:
		return "🛡️"
	case models.AuditItemStolen, models.AuditItemLost:
		return "🎒"
	case models.AuditInsurancePaid, models.AuditInsuranceBought:
		return "📋"
	case models.AuditInsuranceLapsed:
		return "⚠️"
	}
	return "•"
}

func TopCrooksHandler(b *hoodbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		top, err := b.Leaderboard.TopRobbers(ctx, config.DefaultPageSize)
		if err != nil {
			return respondError(e, "Could not load the leaderboard. Try again later.")
		}
		if len(top) == 0 {
			return respondWarning(e, "Nobody has pulled off a job yet.")
		}

		var description strings.Builder
		description.WriteString("```ansi\n")
		for i, stats := range top {
			account, err := b.AccountRepository.GetByID(ctx, stats.AccountID)
			name := fmt.Sprintf("account %d", stats.AccountID)
			if err == nil {
				name = account.Username
			}
			description.WriteString(fmt.Sprintf("%2d. \x1b[32m%s\x1b[0m stole $%s (%d/%d jobs)\n",
				i+1, name, utils.FormatNumber(stats.WealthStolen), stats.RobSuccesses, stats.RobAttempts))
		}
		description.WriteString("```")

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🏆 Top Crooks",
				Description: description.String(),
				Color:       config.InfoColor,
			}},
		})
	}
}
