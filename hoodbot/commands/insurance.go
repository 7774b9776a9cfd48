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
	"github.com/hoodline/hoodbot/hoodbot/game/insurance"
	"github.com/hoodline/hoodbot/hoodbot/utils"
)

func InsuranceHandler(b *hoodbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		account, err := b.Accounts.EnsureAccount(ctx, models.PlatformDiscord, e.User().ID.String(), e.User().Username)
		if err != nil {
			return respondError(e, "Could not load your account. Try again later.")
		}

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "buy":
			return insuranceBuy(ctx, b, e, account.ID, models.InsuranceTier(data.String("tier")))
		default:
			return insuranceStatus(ctx, b, e, account.ID)
		}
	}
}

func insuranceStatus(ctx context.Context, b *hoodbot.Bot, e *handler.CommandEvent, accountID int64) error {
	st, err := b.InsuranceManager.Status(ctx, accountID)
	if err != nil {
		return respondError(e, "Could not load your coverage. Try again later.")
	}

	now := time.Now()
	if st.Tier == models.InsuranceNone {
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🛡️ Insurance",
				Description: "You have no coverage. One bad night and it's all gone.\nUse `/insurance buy` to fix that.",
				Color:       config.WarningColor,
				Timestamp:   &now,
			}},
		})
	}

	desc := fmt.Sprintf("**Tier:** %s\n**Coverage:** %s of stolen wealth\n**Daily premium:** $%s",
		st.Tier, utils.FormatPercent(st.Fraction), utils.FormatNumber(st.Premium))
	color := config.SuccessColor
	if st.IsCurrent {
		desc += fmt.Sprintf("\n**Covered until:** <t:%d:R>", st.PaidUntil.Unix())
	} else {
		desc += "\n\n⚠️ Your premium is overdue. You are **not covered** right now."
		color = config.ErrorColor
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "🛡️ Insurance",
			Description: desc,
			Color:       color,
			Timestamp:   &now,
		}},
	})
}

func insuranceBuy(ctx context.Context, b *hoodbot.Bot, e *handler.CommandEvent, accountID int64, tier models.InsuranceTier) error {
	st, err := b.InsuranceManager.Purchase(ctx, accountID, tier)
	if err != nil {
		if errors.Is(err, insurance.ErrCannotAfford) {
			return respondWarning(e, "You cannot afford that premium right now.")
		}
		return respondError(e, "The purchase failed. Try again later.")
	}

	now := time.Now()
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title: "🛡️ Coverage Active",
			Description: fmt.Sprintf("You are on **%s** coverage: %s of stolen wealth comes back to you.\nFirst premium of $%s paid; next one is due in 24h.",
				st.Tier, utils.FormatPercent(st.Fraction), utils.FormatNumber(st.Premium)),
			Color:     config.SuccessColor,
			Timestamp: &now,
		}},
	})
}
