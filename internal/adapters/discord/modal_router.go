package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"rotabot/internal/application"
	"rotabot/internal/domain"
)

// HandleModalSubmit route les modals d'administration selon leur CustomID.
func (h *Handler) HandleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	tok, err := domain.ParseToken(i.ModalSubmitData().CustomID)
	if err != nil {
		// Modal inconnu : on ignore silencieusement pour rester robuste.
		return
	}
	session, ok := h.session(s, i, application.SessionAdmin)
	if !ok {
		return
	}
	if session.FocusedEvent() == 0 {
		h.respondError(s, i, domain.ErrUnexpectedSelection)
		return
	}
	ctx := context.Background()
	switch tok.Action {
	case domain.ActionSetTime:
		h.handleSetTimeSubmit(ctx, s, i, session)
	case domain.ActionAddRole:
		h.handleAddRoleSubmit(ctx, s, i, session)
	}
}
