package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	"rotabot/internal/application"
	"rotabot/internal/domain"
	pkgdiscord "rotabot/pkg/discord"
)

// Discord n'accepte que 25 options par menu.
const maxMenuOptions = 25

// componentToken reads the token of a component interaction: select menus
// carry it in the chosen value, buttons in their custom id.
func componentToken(data discordgo.MessageComponentInteractionData) (domain.Token, error) {
	raw := data.CustomID
	if len(data.Values) > 0 {
		raw = data.Values[0]
	}
	return domain.ParseToken(raw)
}

// HandleComponent routes buttons and select menus by token action.
func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	tok, err := componentToken(i.MessageComponentData())
	if err != nil {
		h.logger.Warn("⚠️ Composant inconnu", "custom_id", i.MessageComponentData().CustomID, "error", err)
		return
	}
	ctx := context.Background()
	switch tok.Action {
	case domain.ActionChooseDay, domain.ActionChooseEvent, domain.ActionChooseRole:
		h.handleFlowSelection(ctx, s, i, tok)
	case domain.ActionCancelParticipation, domain.ActionCancelAll:
		h.handleCancelSelection(ctx, s, i, tok)
	case domain.ActionManageEvent, domain.ActionSetTime, domain.ActionDeleteEvent, domain.ActionAddRole:
		h.handleAdminSelection(ctx, s, i, tok)
	case domain.ActionCancel:
		h.handleCancelButton(ctx, s, i)
	}
}

// session returns the live session of the interacting actor if it has the
// expected kind; otherwise it answers that the menu expired.
func (h *Handler) session(s *discordgo.Session, i *discordgo.InteractionCreate, kind application.SessionKind) (*application.Session, bool) {
	actor := actorFrom(i, h.isAdmin)
	session, ok := h.sessions.Get(application.ActorKey(actor))
	if !ok || session.Kind != kind {
		h.respondEphemeral(s, i.Interaction, h.t.T(localeOf(i), "common.session_expired", nil))
		return nil, false
	}
	return session, true
}

func (h *Handler) handleFlowSelection(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, tok domain.Token) {
	session, ok := h.session(s, i, application.SessionParticipate)
	if !ok {
		return
	}
	step, err := h.flow.Advance(ctx, session, tok)
	if err != nil {
		h.respondError(s, i, err)
		return
	}
	if step.Terminal() {
		h.sessions.End(application.ActorKey(session.Actor))
	}
	h.update(s, i.Interaction, h.renderStep(localeOf(i), step))
}

func (h *Handler) handleCancelButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	locale := localeOf(i)
	actor := actorFrom(i, h.isAdmin)
	key := application.ActorKey(actor)
	session, ok := h.sessions.Get(key)
	if !ok {
		h.update(s, i.Interaction, &discordgo.InteractionResponseData{Content: h.t.T(locale, "common.session_expired", nil)})
		return
	}
	h.sessions.End(key)
	if session.Kind == application.SessionParticipate {
		step, err := h.flow.Advance(ctx, session, domain.Token{Action: domain.ActionCancel})
		if err == nil {
			h.update(s, i.Interaction, h.renderStep(locale, step))
			return
		}
		if !errors.Is(err, domain.ErrUnexpectedSelection) {
			h.logger.Warn("⚠️ Annulation du dialogue", "error", err)
		}
	}
	h.update(s, i.Interaction, &discordgo.InteractionResponseData{Content: h.t.T(locale, "common.dialogue_cancelled", nil)})
}

// renderStep turns a flow step into message content and components.
func (h *Handler) renderStep(locale string, step application.Step) *discordgo.InteractionResponseData {
	if step.Terminal() {
		data := map[string]any{}
		if step.Participation != nil {
			data["Participation"] = h.labels.Participation(locale, *step.Participation)
		}
		return &discordgo.InteractionResponseData{
			Content: h.t.T(locale, "outcome."+step.Outcome.String(), data),
		}
	}

	prompt := ""
	options := make([]discordgo.SelectMenuOption, 0, len(step.Choices))
	for _, c := range step.Choices {
		if len(options) == maxMenuOptions {
			break
		}
		opt := discordgo.SelectMenuOption{Value: c.Token.String()}
		switch step.State {
		case application.StateChoosingDay:
			prompt = "flow.choose_day"
			opt.Label = h.labels.Date(locale, c.Date)
		case application.StateChoosingEvent:
			prompt = "flow.choose_event"
			opt.Label = h.labels.Slot(locale, c.Event.Slot, c.Event.Time)
			opt.Description = pkgdiscord.Truncate(c.Event.Name, pkgdiscord.MaxOptionText)
		case application.StateChoosingRole:
			prompt = "flow.choose_role"
			opt.Label = c.Role.Name
		}
		opt.Label = pkgdiscord.Truncate(opt.Label, pkgdiscord.MaxOptionText)
		options = append(options, opt)
	}

	return &discordgo.InteractionResponseData{
		Content: h.t.T(locale, prompt, nil),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    step.State.String(),
					Placeholder: h.t.T(locale, "flow.placeholder", nil),
					Options:     options,
				},
			}},
			h.cancelRow(locale),
		},
	}
}

func (h *Handler) cancelRow(locale string, extra ...discordgo.MessageComponent) discordgo.ActionsRow {
	buttons := append(extra, discordgo.Button{
		Label:    h.t.T(locale, "common.cancel_button", nil),
		Style:    discordgo.SecondaryButton,
		CustomID: domain.Token{Action: domain.ActionCancel}.String(),
	})
	return discordgo.ActionsRow{Components: buttons}
}
