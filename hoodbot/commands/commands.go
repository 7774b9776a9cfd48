package commands

import (
	"github.com/disgoorg/disgo/discord"
)

var Commands = []discord.ApplicationCommandCreate{
	Rob,
	Scout,
	Balance,
	Insurance,
	History,
	TopCrooks,
	Version,
}

var Rob = discord.SlashCommandCreate{
	Name:        "rob",
	Description: "🔫 Rob another player",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "target",
			Description: "Who to rob (name or id)",
			Required:    true,
		},
	},
}

var Scout = discord.SlashCommandCreate{
	Name:        "scout",
	Description: "🔍 Scout a target before robbing them",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "target",
			Description: "Who to scout (name or id)",
			Required:    true,
		},
	},
}

var Balance = discord.SlashCommandCreate{
	Name:        "balance",
	Description: "💰 View your wealth, level and street stats",
}

var Insurance = discord.SlashCommandCreate{
	Name:        "insurance",
	Description: "🛡️ Manage wealth insurance",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "status",
			Description: "Show your current coverage",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "buy",
			Description: "Buy or renew a coverage tier",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "tier",
					Description: "Coverage tier",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "Bronze (15%)", Value: "bronze"},
						{Name: "Silver (30%)", Value: "silver"},
						{Name: "Gold (50%)", Value: "gold"},
					},
				},
			},
		},
	},
}

var History = discord.SlashCommandCreate{
	Name:        "history",
	Description: "📜 Your recent robberies, losses and payments",
}

var TopCrooks = discord.SlashCommandCreate{
	Name:        "topcrooks",
	Description: "🏆 The most successful robbers on the street",
}

var Version = discord.SlashCommandCreate{
	Name:        "version",
	Description: "version command",
}
