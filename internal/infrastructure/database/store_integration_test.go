package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
)

// openTestStore connects to TEST_DATABASE_URL, applies migrations and empties
// every table. Tests using it share one database and do not run in parallel.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := RunMigrations(dsn, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, logger)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`TRUNCATE participations, event_roles, events, roles RESTART IDENTITY CASCADE`,
	); err != nil {
		pool.Close()
		t.Fatalf("truncate: %v", err)
	}
	store := NewStore(pool)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func pgDay(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

func pgWeekDrafts(roles ...string) []entities.EventDraft {
	var drafts []entities.EventDraft
	for i := 0; i < 7; i++ {
		for _, slot := range entities.Slots {
			drafts = append(drafts, entities.EventDraft{
				Date: pgDay(12 + i), Slot: slot, Name: "Service", Time: "08:00", Roles: roles,
			})
		}
	}
	return drafts
}

func pgSeedEvent(t *testing.T, store *Store, date time.Time, roles ...string) entities.Event {
	t.Helper()
	ctx := context.Background()
	if _, err := store.Events().EnsureEvents(ctx, []entities.EventDraft{{
		Date: date, Slot: entities.SlotMorning, Name: "Morning service", Time: "08:00", Roles: roles,
	}}); err != nil {
		t.Fatalf("ensure events: %v", err)
	}
	events, err := store.Events().ListByDates(ctx, []time.Time{date})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	for _, ev := range events {
		if ev.Slot == entities.SlotMorning {
			return ev
		}
	}
	t.Fatalf("seeded event not found on %s", date.Format(time.DateOnly))
	return entities.Event{}
}

func TestPostgresEnsureEventsIdempotentAndOrdered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	drafts := pgWeekDrafts("Leader", "Choir")

	created, err := store.Events().EnsureEvents(ctx, drafts)
	if err != nil || created != 14 {
		t.Fatalf("first ensure: created=%d err=%v, want 14", created, err)
	}
	created, err = store.Events().EnsureEvents(ctx, drafts)
	if err != nil || created != 0 {
		t.Fatalf("second ensure: created=%d err=%v, want 0", created, err)
	}

	// Dates out of order still come back by (date, slot).
	events, err := store.Events().ListByDates(ctx, []time.Time{pgDay(18), pgDay(12), pgDay(15)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 6 {
		t.Fatalf("events = %d, want 6", len(events))
	}
	wantDays := []int{12, 12, 15, 15, 18, 18}
	for i, ev := range events {
		if ev.Date.Day() != wantDays[i] || ev.Slot != entities.Slots[i%2] {
			t.Fatalf("event %d = %s/%s", i, ev.Date.Format(time.DateOnly), ev.Slot)
		}
		if len(ev.Roles) != 2 || ev.Roles[0].Name != "Leader" || ev.Roles[1].Name != "Choir" {
			t.Fatalf("event %d roles = %+v, want [Leader Choir]", i, ev.Roles)
		}
	}
}

func TestPostgresEnsureEventsConcurrent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	drafts := pgWeekDrafts("Leader")

	const workers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.Events().EnsureEvents(ctx, drafts)
			if err != nil {
				t.Errorf("ensure: %v", err)
				return
			}
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != 14 {
		t.Fatalf("total created = %d, want 14", total)
	}
}

func TestPostgresCreateParticipationUniqueness(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ev := pgSeedEvent(t, store, pgDay(12), "A", "B")
	at := time.Date(2026, 10, 10, 9, 0, 0, 0, time.UTC)

	p, created, err := store.Participations().Create(ctx, ev.ID, ev.Roles[0].ID, "u1", at)
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	if p.RoleName != "A" || p.Actor != "u1" || !p.EventDate.Equal(ev.Date) || !p.CreatedAt.Equal(at) {
		t.Fatalf("participation = %+v", p)
	}

	again, created, err := store.Participations().Create(ctx, ev.ID, ev.Roles[0].ID, "u1", at.Add(time.Minute))
	if err != nil || created {
		t.Fatalf("second create: created=%v err=%v, want existing row", created, err)
	}
	if again.ID != p.ID {
		t.Fatalf("existing id = %d, want %d", again.ID, p.ID)
	}
}

func TestPostgresCreateParticipationConcurrent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ev := pgSeedEvent(t, store, pgDay(12), "A")

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := store.Participations().Create(ctx, ev.ID, ev.Roles[0].ID, "u1", time.Now())
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			if created {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if inserted != 1 {
		t.Fatalf("inserted = %d, want 1", inserted)
	}
}

func TestPostgresCreateParticipationRoleNotAttached(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ev := pgSeedEvent(t, store, pgDay(12), "A")
	other, err := store.Roles().EnsureRoles(ctx, []string{"Unlinked"})
	if err != nil {
		t.Fatalf("ensure roles: %v", err)
	}

	if _, _, err := store.Participations().Create(ctx, 9999, ev.Roles[0].ID, "u1", time.Now()); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("missing event err = %v, want ErrEventNotFound", err)
	}
	if _, _, err := store.Participations().Create(ctx, ev.ID, other[0].ID, "u1", time.Now()); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("unlinked role err = %v, want ErrRoleNotFound", err)
	}
	if _, _, err := store.Participations().Create(ctx, ev.ID, 9999, "u1", time.Now()); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("missing role err = %v, want ErrRoleNotFound", err)
	}
}

func TestPostgresDeleteByActorFrom(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	past := pgSeedEvent(t, store, pgDay(12), "A")
	today := pgSeedEvent(t, store, pgDay(14), "A")
	future := pgSeedEvent(t, store, pgDay(16), "A")

	for _, ev := range []entities.Event{future, past, today} {
		for _, actor := range []string{"u1", "u2"} {
			if _, _, err := store.Participations().Create(ctx, ev.ID, ev.Roles[0].ID, actor, time.Now()); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
	}

	removed, err := store.Participations().DeleteByActorFrom(ctx, "u1", pgDay(14))
	if err != nil {
		t.Fatalf("delete by actor: %v", err)
	}
	if len(removed) != 2 || removed[0].EventID != today.ID || removed[1].EventID != future.ID {
		t.Fatalf("removed = %+v, want today then future", removed)
	}
	if removed[0].RoleName != "A" || removed[0].Actor != "u1" {
		t.Fatalf("removed[0] = %+v", removed[0])
	}

	left, err := store.Participations().ListByActorFrom(ctx, "u1", pgDay(1))
	if err != nil {
		t.Fatalf("list u1: %v", err)
	}
	if len(left) != 1 || left[0].EventID != past.ID {
		t.Fatalf("u1 left = %+v, want only the past one", left)
	}
	others, err := store.Participations().ListByActorFrom(ctx, "u2", pgDay(1))
	if err != nil || len(others) != 3 {
		t.Fatalf("u2 participations = %d, %v, want 3", len(others), err)
	}

	none, err := store.Participations().DeleteByActorFrom(ctx, "u1", pgDay(14))
	if err != nil || len(none) != 0 {
		t.Fatalf("second delete = %d, %v, want 0", len(none), err)
	}
}

func TestPostgresAddRoleReportsNewLink(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ev := pgSeedEvent(t, store, pgDay(12), "A")

	withRole, added, err := store.Events().AddRole(ctx, ev.ID, "Sound")
	if err != nil || !added {
		t.Fatalf("add role: added=%v err=%v", added, err)
	}
	if len(withRole.Roles) != 2 || withRole.Roles[1].Name != "Sound" {
		t.Fatalf("roles = %+v, want [A Sound]", withRole.Roles)
	}
	again, added, err := store.Events().AddRole(ctx, ev.ID, "Sound")
	if err != nil || added || len(again.Roles) != 2 {
		t.Fatalf("repeat: added=%v roles=%d err=%v", added, len(again.Roles), err)
	}
	if _, _, err := store.Events().AddRole(ctx, 9999, "Sound"); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("missing event err = %v", err)
	}
}

func TestPostgresDeleteEventCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ev := pgSeedEvent(t, store, pgDay(12), "A")
	p, _, err := store.Participations().Create(ctx, ev.ID, ev.Roles[0].ID, "u1", time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := store.Events().Delete(ctx, ev.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(deleted.Participations) != 1 {
		t.Fatalf("deleted event participations = %d, want 1", len(deleted.Participations))
	}
	if _, err := store.Participations().FindByID(ctx, p.ID); !errors.Is(err, domain.ErrParticipationNotFound) {
		t.Fatalf("participation after cascade err = %v", err)
	}
	if _, err := store.Events().FindByID(ctx, ev.ID); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("event after delete err = %v", err)
	}
	if _, err := store.Events().Delete(ctx, ev.ID); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}
