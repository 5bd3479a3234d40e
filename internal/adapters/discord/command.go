package discord

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"rotabot/internal/application"
	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
	"rotabot/internal/infrastructure/ical"
	pkgdiscord "rotabot/pkg/discord"
)

// Noms des commandes slash.
const (
	cmdParticipate         = "participate"
	cmdSchedule            = "schedule"
	cmdCancelParticipation = "cancel-participation"
	cmdEditEvents          = "edit-events"
	cmdCancel              = "cancel"
	cmdCalendar            = "calendar"
)

// commandLocales are the Discord locales that get a translated description.
var commandLocales = []discordgo.Locale{discordgo.Russian, discordgo.EnglishUS, discordgo.EnglishGB}

// commands builds the slash command set with descriptions taken from the
// command.* catalog entries.
func (h *Handler) commands(defaultLocale string) []*discordgo.ApplicationCommand {
	defs := []struct{ name, key string }{
		{cmdParticipate, "participate"},
		{cmdSchedule, "schedule"},
		{cmdCancelParticipation, "cancel_participation"},
		{cmdEditEvents, "edit_events"},
		{cmdCancel, "cancel"},
		{cmdCalendar, "calendar"},
	}
	out := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, d := range defs {
		key := "command." + d.key
		localized := make(map[discordgo.Locale]string, len(commandLocales))
		for _, loc := range commandLocales {
			localized[loc] = h.t.T(string(loc), key, nil)
		}
		out = append(out, &discordgo.ApplicationCommand{
			Name:                     d.name,
			Description:              h.t.T(defaultLocale, key, nil),
			DescriptionLocalizations: &localized,
		})
	}
	return out
}

// HandleCommand dispatches a slash command.
func (h *Handler) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	switch i.ApplicationCommandData().Name {
	case cmdParticipate:
		h.handleParticipate(ctx, s, i)
	case cmdSchedule:
		h.handleSchedule(ctx, s, i)
	case cmdCancelParticipation:
		h.handleCancelParticipation(ctx, s, i)
	case cmdEditEvents:
		h.handleEditEvents(ctx, s, i)
	case cmdCancel:
		h.handleCancel(ctx, s, i)
	case cmdCalendar:
		h.handleCalendar(ctx, s, i)
	}
}

func (h *Handler) handleParticipate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := h.catalog.EnsureCurrentWeek(ctx); err != nil {
		h.respondError(s, i, err)
		return
	}
	actor := actorFrom(i, h.isAdmin)
	session := h.sessions.Begin(actor, application.SessionParticipate)
	step, err := h.flow.Start(ctx, session)
	if err != nil {
		h.sessions.End(application.ActorKey(actor))
		h.respondError(s, i, err)
		return
	}
	if step.Terminal() {
		h.sessions.End(application.ActorKey(actor))
	}
	h.respond(s, i.Interaction, h.renderStep(localeOf(i), step))
}

func (h *Handler) handleSchedule(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	locale := localeOf(i)
	report, err := h.catalog.Schedule(ctx, locale)
	if err != nil {
		h.respondError(s, i, err)
		return
	}
	embed := pkgdiscord.ScheduleEmbed(h.t.T(locale, "schedule.title", nil), report)
	h.respond(s, i.Interaction, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}})
}

func (h *Handler) handleCancelParticipation(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	locale := localeOf(i)
	actor := actorFrom(i, h.isAdmin)
	list, err := h.registry.UpcomingFromToday(ctx, actor.Handle)
	if err != nil {
		h.respondError(s, i, err)
		return
	}
	if len(list) == 0 {
		h.respondEphemeral(s, i.Interaction, h.t.T(locale, "cancel.none", nil))
		return
	}
	h.sessions.Begin(actor, application.SessionCancel)
	h.respond(s, i.Interaction, h.renderCancelMenu(locale, list))
}

func (h *Handler) handleEditEvents(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	locale := localeOf(i)
	actor := actorFrom(i, h.isAdmin)
	if err := h.catalog.EnsureCurrentWeek(ctx); err != nil {
		h.respondError(s, i, err)
		return
	}
	events, err := h.admin.Events(ctx, actor)
	if err != nil {
		h.respondError(s, i, err)
		return
	}
	if len(events) == 0 {
		h.respondEphemeral(s, i.Interaction, h.t.T(locale, "admin.no_events", nil))
		return
	}
	h.sessions.Begin(actor, application.SessionAdmin)
	h.respond(s, i.Interaction, h.renderAdminMenu(locale, events))
}

// handleCancel abandons whatever dialogue the actor has open.
func (h *Handler) handleCancel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	locale := localeOf(i)
	actor := actorFrom(i, h.isAdmin)
	key := application.ActorKey(actor)
	session, ok := h.sessions.Get(key)
	if !ok {
		h.respondEphemeral(s, i.Interaction, h.t.T(locale, "common.no_dialogue", nil))
		return
	}
	if session.Kind == application.SessionParticipate {
		_, err := h.flow.Advance(ctx, session, domain.Token{Action: domain.ActionCancel})
		if err != nil && !errors.Is(err, domain.ErrUnexpectedSelection) {
			h.logger.Warn("⚠️ Annulation du dialogue", "error", err)
		}
	}
	h.sessions.End(key)
	h.respondEphemeral(s, i.Interaction, h.t.T(locale, "common.dialogue_cancelled", nil))
}

func (h *Handler) handleCalendar(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	locale := localeOf(i)
	events, err := h.catalog.EventsFor(ctx, h.catalog.CurrentWeek())
	if err != nil {
		h.respondError(s, i, err)
		return
	}
	exporter := ical.Exporter{
		Loc:  h.catalog.Location(),
		Host: h.guildID,
		Label: func(slot entities.Slot) string {
			return h.t.T(locale, "slot."+slot.String(), nil)
		},
	}
	doc := exporter.Export(events, time.Now())
	h.respond(s, i.Interaction, &discordgo.InteractionResponseData{
		Content: h.t.T(locale, "calendar.ready", nil),
		Files: []*discordgo.File{{
			Name:        h.t.T(locale, "calendar.file_name", nil),
			ContentType: "text/calendar",
			Reader:      strings.NewReader(doc),
		}},
	})
}
