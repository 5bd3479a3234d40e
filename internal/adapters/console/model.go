// Package console drives the rota dialogues from a terminal, for local runs
// without a Discord token.
package console

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rotabot/internal/application"
	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
	"rotabot/internal/ports/input"
	"rotabot/internal/ports/output"
	pkgdiscord "rotabot/pkg/discord"
)

type mode int

const (
	modeMenu mode = iota
	modeFlow
	modeMessage
)

// Main menu entries, labelled by their command.* descriptions.
const (
	entryParticipate = iota
	entrySchedule
	entryCancelAll
	entryQuit
)

var menuKeys = []string{"command.participate", "command.schedule", "command.cancel_participation", "console.quit"}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6BCB77"))
	normalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

// Deps are the use cases the console drives.
type Deps struct {
	Catalog    input.CatalogUseCase
	Registry   input.ParticipationUseCase
	Flow       input.FlowUseCase
	Sessions   *application.SessionStore
	Translator output.T
}

type stepMsg struct {
	step application.Step
	err  error
}

type textMsg struct {
	text string
	err  error
}

// Model is the bubbletea model of one local actor's dialogue.
type Model struct {
	deps   Deps
	actor  entities.Actor
	locale string
	labels application.Labels

	mode    mode
	cursor  int
	session *application.Session
	step    application.Step
	message string
}

func NewModel(deps Deps, actor entities.Actor, locale string) *Model {
	return &Model{
		deps:   deps,
		actor:  actor,
		locale: locale,
		labels: application.NewLabels(deps.Translator),
	}
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case stepMsg:
		m.applyStep(msg)
	case textMsg:
		m.show(msg.text, msg.err)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.endSession()
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.options()-1 {
			m.cursor++
		}
	case "esc":
		switch m.mode {
		case modeFlow:
			return m, m.advance(domain.Token{Action: domain.ActionCancel})
		case modeMessage:
			m.toMenu()
		}
	case "enter":
		return m.selectCurrent()
	}
	return m, nil
}

func (m *Model) selectCurrent() (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeMessage:
		m.toMenu()
	case modeFlow:
		if m.cursor < len(m.step.Choices) {
			return m, m.advance(m.step.Choices[m.cursor].Token)
		}
	case modeMenu:
		switch m.cursor {
		case entryParticipate:
			return m, m.start()
		case entrySchedule:
			return m, m.schedule()
		case entryCancelAll:
			return m, m.cancelAll()
		case entryQuit:
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) start() tea.Cmd {
	m.session = m.deps.Sessions.Begin(m.actor, application.SessionParticipate)
	session := m.session
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.deps.Catalog.EnsureCurrentWeek(ctx); err != nil {
			return stepMsg{err: err}
		}
		step, err := m.deps.Flow.Start(ctx, session)
		return stepMsg{step: step, err: err}
	}
}

func (m *Model) advance(tok domain.Token) tea.Cmd {
	session := m.session
	if session == nil {
		return nil
	}
	return func() tea.Msg {
		step, err := m.deps.Flow.Advance(context.Background(), session, tok)
		return stepMsg{step: step, err: err}
	}
}

func (m *Model) schedule() tea.Cmd {
	return func() tea.Msg {
		report, err := m.deps.Catalog.Schedule(context.Background(), m.locale)
		return textMsg{text: report, err: err}
	}
}

func (m *Model) cancelAll() tea.Cmd {
	return func() tea.Msg {
		removed, err := m.deps.Registry.CancelAllUpcoming(context.Background(), m.actor.Handle)
		if err != nil {
			return textMsg{err: err}
		}
		if len(removed) == 0 {
			return textMsg{text: m.t("cancel.all_none", nil)}
		}
		return textMsg{text: m.t("cancel.all_done", map[string]any{"Count": len(removed)})}
	}
}

func (m *Model) applyStep(msg stepMsg) {
	if msg.err != nil {
		// A rejected selection leaves the dialogue where it was.
		if errors.Is(msg.err, domain.ErrUnexpectedSelection) && m.mode == modeFlow {
			return
		}
		m.endSession()
		m.show("", msg.err)
		return
	}
	if msg.step.Terminal() {
		m.endSession()
		data := map[string]any{}
		if p := msg.step.Participation; p != nil {
			data["Participation"] = m.labels.Participation(m.locale, *p)
		}
		m.show(m.t("outcome."+msg.step.Outcome.String(), data), nil)
		return
	}
	m.mode = modeFlow
	m.step = msg.step
	m.cursor = 0
}

func (m *Model) show(text string, err error) {
	if err != nil {
		text = m.t(pkgdiscord.DomainErrorKey(err), nil)
	}
	m.mode = modeMessage
	m.message = text
	m.cursor = 0
}

func (m *Model) toMenu() {
	m.mode = modeMenu
	m.cursor = 0
	m.message = ""
}

func (m *Model) endSession() {
	if m.session != nil {
		m.deps.Sessions.End(application.ActorKey(m.actor))
		m.session = nil
	}
}

func (m *Model) options() int {
	switch m.mode {
	case modeMenu:
		return len(menuKeys)
	case modeFlow:
		return len(m.step.Choices)
	}
	return 0
}

func (m *Model) t(key string, data map[string]any) string {
	return m.deps.Translator.T(m.locale, key, data)
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.t("console.title", map[string]any{"Actor": m.actor.Handle})))
	b.WriteString("\n\n")

	switch m.mode {
	case modeMessage:
		b.WriteString(boxStyle.Render(m.message))
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render(m.t("console.continue", nil)))
		return b.String()
	case modeMenu:
		labels := make([]string, len(menuKeys))
		for i, key := range menuKeys {
			labels[i] = m.t(key, nil)
		}
		b.WriteString(m.list(labels))
	case modeFlow:
		b.WriteString(m.t(promptKey(m.step.State), nil))
		b.WriteString("\n")
		labels := make([]string, len(m.step.Choices))
		for i, c := range m.step.Choices {
			labels[i] = m.choiceLabel(c)
		}
		b.WriteString(m.list(labels))
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(m.t("console.hint", nil)))
	return b.String()
}

func (m *Model) list(labels []string) string {
	var b strings.Builder
	for i, label := range labels {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + label))
		} else {
			b.WriteString(normalStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) choiceLabel(c application.Choice) string {
	switch m.step.State {
	case application.StateChoosingDay:
		return m.labels.Date(m.locale, c.Date)
	case application.StateChoosingEvent:
		return m.labels.Slot(m.locale, c.Event.Slot, c.Event.Time) + " · " + c.Event.Name
	case application.StateChoosingRole:
		return c.Role.Name
	}
	return c.Token.String()
}

func promptKey(state application.FlowState) string {
	switch state {
	case application.StateChoosingDay:
		return "flow.choose_day"
	case application.StateChoosingEvent:
		return "flow.choose_event"
	default:
		return "flow.choose_role"
	}
}

// Run shows the console until the user quits or ctx is cancelled.
func Run(ctx context.Context, m *Model) error {
	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
