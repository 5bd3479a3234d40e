package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"rotabot/internal/domain/entities"
	"rotabot/internal/infrastructure/i18n"
	"rotabot/internal/infrastructure/sqlite"
	"rotabot/pkg/clock"
)

// Friday 16 Oct 2026, 10:00 in Moscow: the week is Mon 12 .. Sun 18 Oct.
var testNow = time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC)

func date(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, text)
	return n.err
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

type stubTemplates struct {
	roles []string
}

func (s stubTemplates) Draft(d time.Time, slot entities.Slot) entities.EventDraft {
	draft := entities.EventDraft{Date: d, Slot: slot, Name: "Morning service", Time: "08:00", Roles: s.DefaultRoles()}
	if slot == entities.SlotEvening {
		draft.Name, draft.Time = "Evening service", "19:00"
	}
	return draft
}

func (s stubTemplates) DefaultRoles() []string { return append([]string(nil), s.roles...) }

type testEnv struct {
	store    *sqlite.Store
	clock    *clock.Fixed
	notifier *recordingNotifier
	catalog  *Catalog
	registry *Registry
	flow     *Flow
	sessions *SessionStore
	admin    *AdminEditor
	labels   Labels
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "rota.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	tr, err := i18n.NewTranslator("en", discardLogger())
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	logger := discardLogger()
	clk := clock.NewFixed(testNow)
	notifier := &recordingNotifier{}
	catalog := NewCatalog(store, stubTemplates{roles: []string{"A", "B"}}, tr, clk, loc, logger)
	registry := NewRegistry(store, notifier, tr, "en", clk, loc, logger)
	return &testEnv{
		store:    store,
		clock:    clk,
		notifier: notifier,
		catalog:  catalog,
		registry: registry,
		flow:     NewFlow(catalog, registry, clk, logger),
		sessions: NewSessionStore(clk),
		admin:    NewAdminEditor(store, catalog, notifier, tr, "en", true, logger),
		labels:   NewLabels(tr),
	}
}

// seed creates exactly the given events.
func (e *testEnv) seed(t *testing.T, drafts ...entities.EventDraft) []entities.Event {
	t.Helper()
	ctx := context.Background()
	if _, err := e.store.Events().EnsureEvents(ctx, drafts); err != nil {
		t.Fatalf("seed events: %v", err)
	}
	dates := make([]time.Time, 0, len(drafts))
	for _, d := range drafts {
		dates = append(dates, d.Date)
	}
	events, err := e.store.Events().ListByDates(ctx, dates)
	if err != nil {
		t.Fatalf("list seeded events: %v", err)
	}
	return events
}

func mondayMorning(roles ...string) entities.EventDraft {
	return entities.EventDraft{Date: date(12), Slot: entities.SlotMorning, Name: "Morning service", Time: "08:00", Roles: roles}
}

func (e *testEnv) countParticipations(t *testing.T) int {
	t.Helper()
	events, err := e.catalog.EventsFor(context.Background(), e.catalog.CurrentWeek())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	n := 0
	for _, ev := range events {
		n += len(ev.Participations)
	}
	return n
}

func mustErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("err = %v, want %v", err, target)
	}
}
