package discord

import (
	"github.com/bwmarrin/discordgo"

	"rotabot/internal/domain/entities"
	pkgdiscord "rotabot/pkg/discord"
)

// actorFrom extracts the acting user. Guild interactions carry Member, DMs
// carry User. The handle is the Discord username, never the display name.
func actorFrom(i *discordgo.InteractionCreate, isAdmin func(userID string) bool) entities.Actor {
	var u *discordgo.User
	switch {
	case i.Member != nil && i.Member.User != nil:
		u = i.Member.User
	case i.User != nil:
		u = i.User
	}
	if u == nil {
		return entities.Actor{}
	}
	return entities.Actor{ID: u.ID, Handle: u.Username, IsAdmin: isAdmin != nil && isAdmin(u.ID)}
}

func localeOf(i *discordgo.InteractionCreate) string {
	return string(i.Locale)
}

func (h *Handler) respond(s *discordgo.Session, i *discordgo.Interaction, data *discordgo.InteractionResponseData) {
	data.Flags |= discordgo.MessageFlagsEphemeral
	if err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		h.logger.Error("❌ Erreur lors de la réponse à l'interaction", "error", err)
	}
}

func (h *Handler) respondEphemeral(s *discordgo.Session, i *discordgo.Interaction, content string) {
	h.respond(s, i, &discordgo.InteractionResponseData{Content: content})
}

// update replaces the message the component belongs to.
func (h *Handler) update(s *discordgo.Session, i *discordgo.Interaction, data *discordgo.InteractionResponseData) {
	if data.Components == nil {
		data.Components = []discordgo.MessageComponent{}
	}
	if err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	}); err != nil {
		h.logger.Error("❌ Erreur lors de la mise à jour du message", "error", err)
	}
}

// respondError answers with the translated domain error, or a generic message
// for anything else.
func (h *Handler) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	key := pkgdiscord.DomainErrorKey(err)
	if key == pkgdiscord.TransientErrorKey {
		h.logger.Error("❌ Erreur inattendue", "error", err, "interaction", i.ID)
	}
	h.respondEphemeral(s, i.Interaction, h.t.T(localeOf(i), key, nil))
}
