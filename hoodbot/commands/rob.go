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
	"github.com/hoodline/hoodbot/hoodbot/game/robbery"
	"github.com/hoodline/hoodbot/hoodbot/utils"
)

func RobHandler(b *hoodbot.Bot) handler.CommandHandler {
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

		res, err := b.RobberyEngine.AttemptRobbery(ctx, attacker.ID, target.ID)
		if err != nil {
			var perr *robbery.PrecheckError
			if errors.As(err, &perr) {
				return respondWarning(e, perr.Message)
			}
			var cerr *robbery.CommitError
			if errors.As(err, &cerr) {
				return respondError(e, "The job fell through before anything changed hands. Try again.")
			}
			return respondError(e, "Something went wrong out there.")
		}

		color := config.SuccessColor
		title := "💰 Robbery Successful"
		if !res.Success {
			color = config.ErrorColor
			title = "🚔 Robbery Failed"
		}

		desc := res.Message
		desc += fmt.Sprintf("\n\n+%s XP (level %d, %s)",
			utils.FormatNumber(res.ExperienceGained), res.AttackerNewLevel, res.AttackerNewTier)
		desc += fmt.Sprintf("\nYou can hit %s again <t:%d:R>.", res.DefenderName, res.CooldownExpiresAt.Unix())

		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       title,
				Description: desc,
				Color:       color,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("Requested by %s", e.User().Username),
				},
				Timestamp: &now,
			}},
		})
	}
}

func respondError(e *handler.CommandEvent, msg string) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "Error",
			Description: msg,
			Color:       config.ErrorColor,
		}},
	})
}

func respondWarning(e *handler.CommandEvent, msg string) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: msg,
			Color:       config.WarningColor,
		}},
	})
}
