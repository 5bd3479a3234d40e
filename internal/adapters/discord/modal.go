package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"rotabot/internal/application"
	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
	pkgdiscord "rotabot/pkg/discord"
)

// Champs des modals d'administration.
const (
	fieldTime = "time"
	fieldRole = "role"
)

func (h *Handler) renderAdminMenu(locale string, events []entities.Event) *discordgo.InteractionResponseData {
	options := make([]discordgo.SelectMenuOption, 0, len(events))
	for i := range events {
		if len(options) == maxMenuOptions {
			break
		}
		ev := &events[i]
		options = append(options, discordgo.SelectMenuOption{
			Label:       pkgdiscord.Truncate(h.labels.Event(locale, ev), pkgdiscord.MaxOptionText),
			Description: pkgdiscord.Truncate(ev.Name, pkgdiscord.MaxOptionText),
			Value:       domain.IDToken(domain.ActionManageEvent, ev.ID).String(),
		})
	}
	return &discordgo.InteractionResponseData{
		Content: h.t.T(locale, "admin.title", nil),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    string(domain.ActionManageEvent),
					Placeholder: h.t.T(locale, "flow.placeholder", nil),
					Options:     options,
				},
			}},
			h.cancelRow(locale),
		},
	}
}

// renderManagePanel shows one event with its admin actions.
func (h *Handler) renderManagePanel(locale string, ev *entities.Event) *discordgo.InteractionResponseData {
	roles := make([]string, 0, len(ev.Roles))
	for _, r := range ev.Roles {
		roles = append(roles, r.Name)
	}
	rolesText := strings.Join(roles, ", ")
	if rolesText == "" {
		rolesText = h.t.T(locale, "admin.no_roles", nil)
	}
	return &discordgo.InteractionResponseData{
		Content: h.t.T(locale, "admin.manage", map[string]any{
			"Event": h.labels.Event(locale, ev),
			"Roles": rolesText,
			"Count": len(ev.Participations),
		}),
		Components: []discordgo.MessageComponent{
			h.cancelRow(locale,
				discordgo.Button{
					Label:    h.t.T(locale, "admin.set_time_button", nil),
					Style:    discordgo.PrimaryButton,
					CustomID: domain.Token{Action: domain.ActionSetTime}.String(),
				},
				discordgo.Button{
					Label:    h.t.T(locale, "admin.add_role_button", nil),
					Style:    discordgo.SecondaryButton,
					CustomID: domain.Token{Action: domain.ActionAddRole}.String(),
				},
				discordgo.Button{
					Label:    h.t.T(locale, "admin.delete_button", nil),
					Style:    discordgo.DangerButton,
					CustomID: domain.Token{Action: domain.ActionDeleteEvent}.String(),
				},
			),
		},
	}
}

// textInputModal builds a one-field modal whose custom id is the token of the
// action it completes.
func textInputModal(action domain.Action, title, field, label, value string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: domain.Token{Action: action}.String(),
		Title:    title,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  field,
					Label:     label,
					Style:     discordgo.TextInputShort,
					Required:  true,
					Value:     value,
					MaxLength: 100,
				},
			}},
		},
	}
}

func (h *Handler) handleAdminSelection(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, tok domain.Token) {
	session, ok := h.session(s, i, application.SessionAdmin)
	if !ok {
		return
	}
	locale := localeOf(i)
	actor := actorFrom(i, h.isAdmin)
	if !actor.IsAdmin {
		h.respondError(s, i, domain.ErrNotAdmin)
		return
	}

	if tok.Action == domain.ActionManageEvent {
		id, err := tok.ID()
		if err != nil {
			h.respondError(s, i, domain.ErrUnexpectedSelection)
			return
		}
		ev, err := h.catalog.EventByID(ctx, id)
		if err != nil {
			h.respondError(s, i, err)
			return
		}
		session.Focus(ev.ID)
		h.update(s, i.Interaction, h.renderManagePanel(locale, ev))
		return
	}

	eventID := session.FocusedEvent()
	if eventID == 0 {
		h.respondError(s, i, domain.ErrUnexpectedSelection)
		return
	}
	switch tok.Action {
	case domain.ActionSetTime:
		ev, err := h.catalog.EventByID(ctx, eventID)
		if err != nil {
			h.respondError(s, i, err)
			return
		}
		h.openModal(s, i, textInputModal(domain.ActionSetTime,
			h.t.T(locale, "admin.time_modal_title", nil), fieldTime,
			h.t.T(locale, "admin.time_field", nil), ev.Time))
	case domain.ActionAddRole:
		h.openModal(s, i, textInputModal(domain.ActionAddRole,
			h.t.T(locale, "admin.role_modal_title", nil), fieldRole,
			h.t.T(locale, "admin.role_field", nil), ""))
	case domain.ActionDeleteEvent:
		ev, err := h.admin.DeleteEvent(ctx, actor, eventID)
		if err != nil {
			h.respondError(s, i, err)
			return
		}
		h.sessions.End(application.ActorKey(actor))
		h.update(s, i.Interaction, &discordgo.InteractionResponseData{
			Content: h.t.T(locale, "admin.deleted", map[string]any{"Event": h.labels.Event(locale, ev)}),
		})
	}
}

func (h *Handler) openModal(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	}); err != nil {
		h.logger.Error("❌ Erreur lors de l'ouverture du modal", "error", err)
	}
}

func (h *Handler) handleSetTimeSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, session *application.Session) {
	locale := localeOf(i)
	value := pkgdiscord.ModalValue(i.ModalSubmitData(), fieldTime)
	ev, err := h.admin.SetEventTime(ctx, actorFrom(i, h.isAdmin), session.FocusedEvent(), value)
	if err != nil {
		h.respondError(s, i, err)
		return
	}
	h.respond(s, i.Interaction, &discordgo.InteractionResponseData{
		Content: h.t.T(locale, "admin.time_updated", map[string]any{"Event": h.labels.Event(locale, ev)}),
	})
}

func (h *Handler) handleAddRoleSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, session *application.Session) {
	locale := localeOf(i)
	name := strings.TrimSpace(pkgdiscord.ModalValue(i.ModalSubmitData(), fieldRole))
	ev, err := h.admin.AddEventRole(ctx, actorFrom(i, h.isAdmin), session.FocusedEvent(), name)
	if err != nil {
		h.respondError(s, i, err)
		return
	}
	h.respond(s, i.Interaction, &discordgo.InteractionResponseData{
		Content: h.t.T(locale, "admin.role_added", map[string]any{
			"Role":  name,
			"Event": h.labels.Event(locale, ev),
		}),
	})
}
