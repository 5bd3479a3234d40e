package ical

import (
	"strings"
	"testing"
	"time"

	"rotabot/internal/domain/entities"
)

func TestExportOneEventPerEntry(t *testing.T) {
	t.Parallel()

	moscow, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	events := []entities.Event{
		{
			ID: 1, Date: monday, Slot: entities.SlotMorning, Name: "Morning service", Time: "08:00",
			Participations: []entities.Participation{{Actor: "u1", RoleName: "Choir"}},
		},
		{ID: 2, Date: monday, Slot: entities.SlotEvening, Name: "Evening service", Time: "after work"},
	}

	out := Exporter{Loc: moscow, Host: "guild-1"}.Export(events, time.Date(2026, 10, 12, 6, 0, 0, 0, time.UTC))

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("VEVENT count = %d, want 2\n%s", got, out)
	}
	for _, want := range []string{
		"UID:2026-10-12-morning@guild-1",
		"UID:2026-10-12-evening@guild-1",
		"SUMMARY:Morning service",
		"@u1: Choir",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("export missing %q\n%s", want, out)
		}
	}
	// 08:00 Moscow is 05:00 UTC.
	if !strings.Contains(out, "DTSTART:20261012T050000Z") {
		t.Fatalf("morning start not converted to UTC\n%s", out)
	}
	if !strings.Contains(out, "DTSTART;VALUE=DATE:20261012") {
		t.Fatalf("free-form time should be an all-day entry\n%s", out)
	}
}

func TestExportEmptyWeek(t *testing.T) {
	t.Parallel()

	out := Exporter{}.Export(nil, time.Now())
	if !strings.Contains(out, "BEGIN:VCALENDAR") || strings.Contains(out, "BEGIN:VEVENT") {
		t.Fatalf("unexpected export\n%s", out)
	}
}
