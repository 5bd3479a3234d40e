package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"rotabot/internal/application"
	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
	pkgdiscord "rotabot/pkg/discord"
)

// renderCancelMenu lists the actor's upcoming participations with a
// "cancel all" button.
func (h *Handler) renderCancelMenu(locale string, list []entities.Participation) *discordgo.InteractionResponseData {
	options := make([]discordgo.SelectMenuOption, 0, len(list))
	for _, p := range list {
		if len(options) == maxMenuOptions {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: pkgdiscord.Truncate(h.labels.Participation(locale, p), pkgdiscord.MaxOptionText),
			Value: domain.IDToken(domain.ActionCancelParticipation, p.ID).String(),
		})
	}
	return &discordgo.InteractionResponseData{
		Content: h.t.T(locale, "cancel.title", nil),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    string(domain.ActionCancelParticipation),
					Placeholder: h.t.T(locale, "flow.placeholder", nil),
					Options:     options,
				},
			}},
			h.cancelRow(locale, discordgo.Button{
				Label:    h.t.T(locale, "cancel.all_button", nil),
				Style:    discordgo.DangerButton,
				CustomID: domain.Token{Action: domain.ActionCancelAll}.String(),
			}),
		},
	}
}

func (h *Handler) handleCancelSelection(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, tok domain.Token) {
	session, ok := h.session(s, i, application.SessionCancel)
	if !ok {
		return
	}
	locale := localeOf(i)
	actor := session.Actor

	switch tok.Action {
	case domain.ActionCancelParticipation:
		id, err := tok.ID()
		if err != nil {
			h.respondError(s, i, domain.ErrUnexpectedSelection)
			return
		}
		p, err := h.registry.CancelOwn(ctx, actor.Handle, id)
		if err != nil {
			h.respondError(s, i, err)
			return
		}
		h.sessions.End(application.ActorKey(actor))
		h.update(s, i.Interaction, &discordgo.InteractionResponseData{
			Content: h.t.T(locale, "cancel.done", map[string]any{
				"Participation": h.labels.Participation(locale, p),
			}),
		})

	case domain.ActionCancelAll:
		removed, err := h.registry.CancelAllUpcoming(ctx, actor.Handle)
		if err != nil {
			h.respondError(s, i, err)
			return
		}
		h.sessions.End(application.ActorKey(actor))
		content := h.t.T(locale, "cancel.all_none", nil)
		if len(removed) > 0 {
			content = h.t.T(locale, "cancel.all_done", map[string]any{"Count": len(removed)})
		}
		h.update(s, i.Interaction, &discordgo.InteractionResponseData{Content: content})
	}
}
