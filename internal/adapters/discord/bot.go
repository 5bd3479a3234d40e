package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Bot is the Discord adapter.
type Bot struct {
	session       *discordgo.Session
	guildID       string
	defaultLocale string
	handler       *Handler
	logger        *slog.Logger
}

// NewSession prepares the Discord client without connecting, so the notify
// sink can share it before Start.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la création de la session Discord: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return s, nil
}

// NewBot wires the handler onto an existing session.
func NewBot(s *discordgo.Session, guildID, defaultLocale string, deps Deps, logger *slog.Logger) *Bot {
	bot := &Bot{
		session:       s,
		guildID:       guildID,
		defaultLocale: defaultLocale,
		handler:       NewHandler(deps, guildID, logger),
		logger:        logger,
	}
	bot.setupHandlers()
	return bot
}

func (b *Bot) setupHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("🤖 Bot en ligne", "user", r.User.Username)
	})
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handler.HandleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.handler.HandleComponent(s, i)
	case discordgo.InteractionModalSubmit:
		b.handler.HandleModalSubmit(s, i)
	}
}

// Start opens the gateway, registers the guild commands and blocks until ctx
// is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("erreur lors de l'ouverture de la session: %w", err)
	}
	defer b.session.Close()

	commands := b.handler.commands(b.defaultLocale)
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, commands); err != nil {
		return fmt.Errorf("erreur lors de l'enregistrement des commandes: %w", err)
	}
	b.logger.Info("✅ Commandes enregistrées", "count", len(commands), "guild", b.guildID)

	<-ctx.Done()
	b.logger.Info("👋 Arrêt du bot")
	return nil
}
