package application

import (
	"context"
	"errors"
	"testing"

	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
)

func participant(handle string) entities.Actor {
	return entities.Actor{ID: "id-" + handle, Handle: handle}
}

func TestFlowSignupPath(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.catalog.EnsureCurrentWeek(ctx); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	s := env.sessions.Begin(participant("u1"), SessionParticipate)

	step, err := env.flow.Start(ctx, s)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if step.State != StateChoosingDay || len(step.Choices) != 7 {
		t.Fatalf("start step = %v with %d choices", step.State, len(step.Choices))
	}
	if got := step.Choices[0].Token.String(); got != "chooseDay|2026-10-12" {
		t.Fatalf("first day token = %q", got)
	}

	step, err = env.flow.Advance(ctx, s, step.Choices[0].Token)
	if err != nil {
		t.Fatalf("choose day: %v", err)
	}
	if step.State != StateChoosingEvent || len(step.Choices) != 2 {
		t.Fatalf("day step = %v with %d choices", step.State, len(step.Choices))
	}
	if step.Choices[0].Event.Slot != entities.SlotMorning {
		t.Fatalf("first event = %+v, want morning", step.Choices[0].Event)
	}

	step, err = env.flow.Advance(ctx, s, step.Choices[0].Token)
	if err != nil {
		t.Fatalf("choose event: %v", err)
	}
	if step.State != StateChoosingRole || len(step.Choices) != 2 || step.Choices[0].Role.Name != "A" {
		t.Fatalf("event step = %+v", step)
	}
	if n := env.countParticipations(t); n != 0 {
		t.Fatalf("participations before role = %d, want 0", n)
	}

	step, err = env.flow.Advance(ctx, s, step.Choices[0].Token)
	if err != nil {
		t.Fatalf("choose role: %v", err)
	}
	if !step.Terminal() || step.Outcome != OutcomeSigned || step.Participation == nil {
		t.Fatalf("role step = %+v", step)
	}
	if step.Participation.Actor != "u1" || step.Summary == "" {
		t.Fatalf("participation = %+v summary = %q", step.Participation, step.Summary)
	}
	if state, outcome := s.Snapshot(); state != StateTerminal || outcome != OutcomeSigned {
		t.Fatalf("session = %v/%v", state, outcome)
	}
	if n := env.countParticipations(t); n != 1 {
		t.Fatalf("participations = %d, want 1", n)
	}
}

// walk drives a fresh session for actor up to ChoosingRole on Monday morning.
func walk(t *testing.T, env *testEnv, actor entities.Actor) (*Session, Step) {
	t.Helper()
	ctx := context.Background()
	s := env.sessions.Begin(actor, SessionParticipate)
	step, err := env.flow.Start(ctx, s)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, pick := range []FlowState{StateChoosingEvent, StateChoosingRole} {
		step, err = env.flow.Advance(ctx, s, step.Choices[0].Token)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if step.State != pick {
			t.Fatalf("state = %v, want %v (outcome %v)", step.State, pick, step.Outcome)
		}
	}
	return s, step
}

func TestFlowAlreadyRegistered(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, mondayMorning("A", "B"))

	for i, want := range []Outcome{OutcomeSigned, OutcomeAlreadyRegistered} {
		s, step := walk(t, env, participant("u1"))
		step, err := env.flow.Advance(ctx, s, step.Choices[0].Token)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if step.Outcome != want {
			t.Fatalf("run %d outcome = %v, want %v", i, step.Outcome, want)
		}
	}
	if n := env.countParticipations(t); n != 1 {
		t.Fatalf("participations = %d, want 1", n)
	}
	if n := len(env.notifier.messages()); n != 1 {
		t.Fatalf("notifications = %d, want 1", n)
	}
}

func TestFlowNoEventsThisWeek(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	s := env.sessions.Begin(participant("u1"), SessionParticipate)
	step, err := env.flow.Start(context.Background(), s)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !step.Terminal() || step.Outcome != OutcomeNoEventsThisWeek || len(step.Choices) != 0 {
		t.Fatalf("step = %+v", step)
	}
}

func TestFlowOffersOnlyDaysWithEvents(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seed(t,
		mondayMorning("A"),
		entities.EventDraft{Date: date(18), Slot: entities.SlotEvening, Name: "Evening service", Time: "19:00", Roles: []string{"A"}},
	)
	s := env.sessions.Begin(participant("u1"), SessionParticipate)
	step, err := env.flow.Start(context.Background(), s)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(step.Choices) != 2 || !step.Choices[0].Date.Equal(date(12)) || !step.Choices[1].Date.Equal(date(18)) {
		t.Fatalf("choices = %+v, want Monday and Sunday", step.Choices)
	}
}

func TestFlowNoEventsThisDay(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, mondayMorning("A"))
	s := env.sessions.Begin(participant("u1"), SessionParticipate)
	if _, err := env.flow.Start(ctx, s); err != nil {
		t.Fatalf("start: %v", err)
	}

	step, err := env.flow.Advance(ctx, s, domain.DayToken(date(13)))
	if err != nil {
		t.Fatalf("choose day: %v", err)
	}
	if step.Outcome != OutcomeNoEventsThisDay {
		t.Fatalf("outcome = %v", step.Outcome)
	}
}

func TestFlowNoRolesForEvent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, mondayMorning())
	s := env.sessions.Begin(participant("u1"), SessionParticipate)
	step, err := env.flow.Start(ctx, s)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if step, err = env.flow.Advance(ctx, s, step.Choices[0].Token); err != nil {
		t.Fatalf("choose day: %v", err)
	}
	step, err = env.flow.Advance(ctx, s, step.Choices[0].Token)
	if err != nil {
		t.Fatalf("choose event: %v", err)
	}
	if step.Outcome != OutcomeNoRolesForEvent {
		t.Fatalf("outcome = %v", step.Outcome)
	}
}

func TestFlowMissingActorIdentity(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seed(t, mondayMorning("A"))
	s, step := walk(t, env, entities.Actor{ID: "42"})

	step, err := env.flow.Advance(context.Background(), s, step.Choices[0].Token)
	if err != nil {
		t.Fatalf("choose role: %v", err)
	}
	if step.Outcome != OutcomeMissingActorIdentity {
		t.Fatalf("outcome = %v", step.Outcome)
	}
	if n := env.countParticipations(t); n != 0 {
		t.Fatalf("participations = %d, want 0", n)
	}
}

func TestFlowCancelAtEveryStep(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, mondayMorning("A"))
	cancel := domain.Token{Action: domain.ActionCancel}

	for depth := 0; depth < 3; depth++ {
		s := env.sessions.Begin(participant("u1"), SessionParticipate)
		step, err := env.flow.Start(ctx, s)
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		for i := 0; i < depth; i++ {
			if step, err = env.flow.Advance(ctx, s, step.Choices[0].Token); err != nil {
				t.Fatalf("advance: %v", err)
			}
		}
		step, err = env.flow.Advance(ctx, s, cancel)
		if err != nil {
			t.Fatalf("cancel at depth %d: %v", depth, err)
		}
		if step.Outcome != OutcomeCancelled {
			t.Fatalf("depth %d outcome = %v", depth, step.Outcome)
		}
	}
	if n := env.countParticipations(t); n != 0 {
		t.Fatalf("participations = %d, want 0", n)
	}
}

func TestFlowRejectsUnexpectedSelection(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	events := env.seed(t,
		mondayMorning("A"),
		entities.EventDraft{Date: date(13), Slot: entities.SlotMorning, Name: "Morning service", Time: "08:00", Roles: []string{"A"}},
	)
	s := env.sessions.Begin(participant("u1"), SessionParticipate)
	if _, err := env.flow.Start(ctx, s); err != nil {
		t.Fatalf("start: %v", err)
	}

	wrong := []domain.Token{
		domain.IDToken(domain.ActionChooseRole, events[0].Roles[0].ID),
		{Action: domain.ActionChooseDay, Value: "yesterday"},
		domain.DayToken(date(19)),
	}
	for _, tok := range wrong {
		_, err := env.flow.Advance(ctx, s, tok)
		mustErrorIs(t, err, domain.ErrUnexpectedSelection)
		if state, _ := s.Snapshot(); state != StateChoosingDay {
			t.Fatalf("after %s state = %v, want choosing_day", tok, state)
		}
	}

	if _, err := env.flow.Advance(ctx, s, domain.DayToken(date(12))); err != nil {
		t.Fatalf("choose day: %v", err)
	}
	// Tuesday's event offered against Monday.
	_, err := env.flow.Advance(ctx, s, domain.IDToken(domain.ActionChooseEvent, events[1].ID))
	mustErrorIs(t, err, domain.ErrUnexpectedSelection)
	if state, _ := s.Snapshot(); state != StateChoosingEvent {
		t.Fatalf("state = %v, want choosing_event", state)
	}
}

func TestFlowEventGoneMidDialogue(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	ev := env.seed(t, mondayMorning("A"))[0]
	s := env.sessions.Begin(participant("u1"), SessionParticipate)
	step, err := env.flow.Start(ctx, s)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if step, err = env.flow.Advance(ctx, s, step.Choices[0].Token); err != nil {
		t.Fatalf("choose day: %v", err)
	}
	if _, err := env.store.Events().Delete(ctx, ev.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	step, err = env.flow.Advance(ctx, s, step.Choices[0].Token)
	if err != nil {
		t.Fatalf("choose event: %v", err)
	}
	if step.Outcome != OutcomeEventNotFound {
		t.Fatalf("outcome = %v", step.Outcome)
	}
}

func TestFlowLifecycleErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	s := env.sessions.Begin(participant("u1"), SessionParticipate)

	_, err := env.flow.Advance(ctx, s, domain.DayToken(date(12)))
	mustErrorIs(t, err, domain.ErrUnexpectedSelection)

	if _, err := env.flow.Start(ctx, s); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err = env.flow.Start(ctx, s)
	mustErrorIs(t, err, domain.ErrUnexpectedSelection)
	_, err = env.flow.Advance(ctx, s, domain.Token{Action: domain.ActionCancel})
	mustErrorIs(t, err, domain.ErrUnexpectedSelection)
}

func TestFlowStorageFailureKeepsSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, mondayMorning("A"))
	s, step := walk(t, env, participant("u1"))

	if err := env.store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err := env.flow.Advance(ctx, s, step.Choices[0].Token)
	if err == nil {
		t.Fatal("advance on closed store succeeded")
	}
	if errors.Is(err, domain.ErrUnexpectedSelection) {
		t.Fatalf("err = %v, want a storage error", err)
	}
	if state, outcome := s.Snapshot(); state != StateChoosingRole || outcome != OutcomeNone {
		t.Fatalf("session = %v/%v, want choosing_role/none", state, outcome)
	}
}
