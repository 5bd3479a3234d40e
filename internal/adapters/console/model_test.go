package console

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	tea "github.com/charmbracelet/bubbletea"

	"rotabot/internal/application"
	"rotabot/internal/domain/entities"
	"rotabot/internal/infrastructure/i18n"
	"rotabot/internal/infrastructure/sqlite"
	"rotabot/pkg/clock"
)

type templates struct{}

func (templates) Draft(d time.Time, slot entities.Slot) entities.EventDraft {
	return entities.EventDraft{Date: d, Slot: slot, Name: "Service", Time: "10:00", Roles: []string{"Leader"}}
}

func (templates) DefaultRoles() []string { return []string{"Leader"} }

func newTestModel(t *testing.T) (*Model, *application.SessionStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	tr, err := i18n.NewTranslator("en", logger)
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	clk := clock.NewFixed(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	catalog := application.NewCatalog(store, templates{}, tr, clk, time.UTC, logger)
	registry := application.NewRegistry(store, nil, tr, "en", clk, time.UTC, logger)
	sessions := application.NewSessionStore(clk)

	m := NewModel(Deps{
		Catalog:    catalog,
		Registry:   registry,
		Flow:       application.NewFlow(catalog, registry, clk, logger),
		Sessions:   sessions,
		Translator: tr,
	}, entities.Actor{ID: "local", Handle: "local"}, "en")
	return m, sessions
}

// press feeds one key and runs the returned command synchronously.
func press(t *testing.T, m *Model, key tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(key)
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		m.Update(msg)
	}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestConsoleSignupDialogue(t *testing.T) {
	t.Parallel()

	m, sessions := newTestModel(t)
	if !strings.Contains(m.View(), "Sign up for a role") {
		t.Fatalf("menu view:\n%s", m.View())
	}

	press(t, m, enter)
	if m.mode != modeFlow || len(m.step.Choices) != 7 {
		t.Fatalf("mode = %v, choices = %d", m.mode, len(m.step.Choices))
	}
	press(t, m, down)
	press(t, m, enter)
	if m.step.State != application.StateChoosingEvent {
		t.Fatalf("state = %v", m.step.State)
	}
	if !strings.Contains(m.View(), "Choose a service:") {
		t.Fatalf("event view:\n%s", m.View())
	}
	press(t, m, enter)
	press(t, m, enter)

	if m.mode != modeMessage || !strings.Contains(m.message, "You are signed up") {
		t.Fatalf("mode = %v, message = %q", m.mode, m.message)
	}
	if !strings.Contains(m.message, "Tuesday, 13 Oct") {
		t.Fatalf("message = %q, want Tuesday", m.message)
	}
	if sessions.Len() != 0 {
		t.Fatalf("sessions = %d after terminal step", sessions.Len())
	}

	press(t, m, enter)
	press(t, m, down)
	press(t, m, enter)
	if !strings.Contains(m.message, "@local: Leader") {
		t.Fatalf("schedule = %q", m.message)
	}
}

func TestConsoleEscCancelsDialogue(t *testing.T) {
	t.Parallel()

	m, sessions := newTestModel(t)
	press(t, m, enter)
	press(t, m, esc)
	if m.mode != modeMessage || m.message != "Dialogue cancelled." {
		t.Fatalf("mode = %v, message = %q", m.mode, m.message)
	}
	if sessions.Len() != 0 {
		t.Fatalf("sessions = %d", sessions.Len())
	}
	press(t, m, esc)
	if m.mode != modeMenu {
		t.Fatalf("mode = %v, want menu", m.mode)
	}
}

func TestConsoleCancelAllWithNothingBooked(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	press(t, m, down)
	press(t, m, down)
	press(t, m, enter)
	if m.message != "There was nothing to cancel." {
		t.Fatalf("message = %q", m.message)
	}
}

func TestConsoleQuit(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}
}
