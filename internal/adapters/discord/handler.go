package discord

import (
	"log/slog"

	"rotabot/internal/application"
	"rotabot/internal/ports/input"
	"rotabot/internal/ports/output"
)

// Deps are the use cases the Discord adapter drives.
type Deps struct {
	Catalog    input.CatalogUseCase
	Registry   input.ParticipationUseCase
	Flow       input.FlowUseCase
	Admin      input.AdminUseCase
	Sessions   *application.SessionStore
	Translator output.T
	// IsAdmin decides the admin fact from the Discord user id.
	IsAdmin func(userID string) bool
}

// Handler handles Discord interactions using use cases.
type Handler struct {
	catalog  input.CatalogUseCase
	registry input.ParticipationUseCase
	flow     input.FlowUseCase
	admin    input.AdminUseCase
	sessions *application.SessionStore
	t        output.T
	labels   application.Labels
	isAdmin  func(userID string) bool
	guildID  string
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(d Deps, guildID string, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:  d.Catalog,
		registry: d.Registry,
		flow:     d.Flow,
		admin:    d.Admin,
		sessions: d.Sessions,
		t:        d.Translator,
		labels:   application.NewLabels(d.Translator),
		isAdmin:  d.IsAdmin,
		guildID:  guildID,
		logger:   logger,
	}
}
