package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/hoodline/hoodbot/hoodbot"
	"github.com/hoodline/hoodbot/hoodbot/config"
	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
	"github.com/hoodline/hoodbot/hoodbot/utils"
)

func ScoutHandler(b *hoodbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		attacker, err := b.Accounts.EnsureAccount(ctx, models.PlatformDiscord, e.User().ID.String(), e.User().Username)
		if err != nil {
			return respondError(e, "Could not load your account. Try again later.")
		}

		data := e.SlashCommandInteractionData()
		target, err := b.TargetResolver.Resolve(ctx, data.String("target"))
		if err != nil {
			if errors.Is(err, repositories.ErrAccountNotFound) {
				return respondError(e, fmt.Sprintf("Nobody around here goes by **%s**.", data.String("target")))
			}
			return respondError(e, "Could not find that target. Try again later.")
		}

		check, err := b.RobberyEngine.CanRob(ctx, attacker.ID, target.ID)
		if err != nil {
			return respondError(e, "Scouting failed. Try again later.")
		}

		now := time.Now()
		if !check.Allowed {
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{{
					Title:       "🔍 Scout Report",
					Description: check.Message,
					Color:       config.WarningColor,
					Timestamp:   &now,
				}},
			})
		}

		desc := fmt.Sprintf("**%s** is walking around with about **$%s**.\n\nYour odds: **%s**",
			check.TargetName,
			utils.FormatNumber(check.TargetWealth),
			utils.FormatPercent(check.PreviewSuccessRate))

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🔍 Scout Report",
				Description: desc,
				Color:       config.InfoColor,
				Footer: &discord.EmbedFooter{
					Text: "Odds can shift before you strike",
				},
				Timestamp: &now,
			}},
		})
	}
}
