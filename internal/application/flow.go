package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rotabot/internal/domain"
	"rotabot/internal/domain/calendar"
	"rotabot/internal/domain/entities"
	"rotabot/pkg/clock"
)

// FlowState is the position of a participate dialogue.
type FlowState int

const (
	StateIdle FlowState = iota
	StateChoosingDay
	StateChoosingEvent
	StateChoosingRole
	StateTerminal
)

func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChoosingDay:
		return "choosing_day"
	case StateChoosingEvent:
		return "choosing_event"
	case StateChoosingRole:
		return "choosing_role"
	case StateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the final result of a dialogue, set once it is Terminal.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSigned
	OutcomeAlreadyRegistered
	OutcomeNoEventsThisWeek
	OutcomeNoEventsThisDay
	OutcomeNoRolesForEvent
	OutcomeMissingActorIdentity
	OutcomeCancelled
	OutcomeEventNotFound
	OutcomeRoleNotFound
)

var outcomeNames = map[Outcome]string{
	OutcomeNone:                 "none",
	OutcomeSigned:               "signed",
	OutcomeAlreadyRegistered:    "already_registered",
	OutcomeNoEventsThisWeek:     "no_events_this_week",
	OutcomeNoEventsThisDay:      "no_events_this_day",
	OutcomeNoRolesForEvent:      "no_roles_for_event",
	OutcomeMissingActorIdentity: "missing_actor_identity",
	OutcomeCancelled:            "cancelled",
	OutcomeEventNotFound:        "event_not_found",
	OutcomeRoleNotFound:         "role_not_found",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Choice is one option offered to the actor. Exactly one of Date, Event and
// Role is meaningful, depending on the state that offered it.
type Choice struct {
	Token domain.Token
	Date  time.Time
	Event *entities.Event
	Role  *entities.Role
}

// Step is what the transport renders after Start or Advance.
type Step struct {
	State         FlowState
	Choices       []Choice
	Outcome       Outcome
	Participation *entities.Participation
	Summary       string
}

// Terminal reports whether the dialogue is over.
func (s Step) Terminal() bool { return s.State == StateTerminal }

type eventSource interface {
	CurrentWeek() []time.Time
	EventsFor(ctx context.Context, dates []time.Time) ([]entities.Event, error)
	EventByID(ctx context.Context, id int64) (*entities.Event, error)
}

type signupService interface {
	Signup(ctx context.Context, eventID, roleID int64, actor string) (SignupResult, error)
}

// Flow drives the day, event, role dialogue. Every step before the role is
// read-only; the role step performs the single signup.
type Flow struct {
	events   eventSource
	registry signupService
	clock    clock.Clock
	logger   *slog.Logger
}

func NewFlow(events eventSource, registry signupService, clk clock.Clock, logger *slog.Logger) *Flow {
	return &Flow{events: events, registry: registry, clock: clk, logger: logger}
}

// Start moves an Idle session to ChoosingDay, offering only days that have
// events, or ends it with NoEventsThisWeek.
func (f *Flow) Start(ctx context.Context, s *Session) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != StateIdle {
		return Step{}, domain.ErrUnexpectedSelection
	}

	week := f.events.CurrentWeek()
	events, err := f.events.EventsFor(ctx, week)
	if err != nil {
		return Step{}, err
	}

	var choices []Choice
	for _, day := range week {
		if hasEventOn(events, day) {
			choices = append(choices, Choice{Token: domain.DayToken(day), Date: day})
		}
	}
	if len(choices) == 0 {
		return f.finish(s, OutcomeNoEventsThisWeek, nil, ""), nil
	}

	s.State = StateChoosingDay
	s.touch(f.clock.Now())
	f.logger.Debug("flow started", "session", s.ID, "days", len(choices))
	return Step{State: s.State, Choices: choices}, nil
}

// Advance applies one selection. A token that does not fit the current state
// returns domain.ErrUnexpectedSelection and leaves the session as it was; so
// does a storage failure, returned as is.
func (f *Flow) Advance(ctx context.Context, s *Session, tok domain.Token) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State == StateIdle || s.State == StateTerminal {
		return Step{}, domain.ErrUnexpectedSelection
	}
	if tok.Action == domain.ActionCancel {
		return f.finish(s, OutcomeCancelled, nil, ""), nil
	}

	switch s.State {
	case StateChoosingDay:
		return f.chooseDay(ctx, s, tok)
	case StateChoosingEvent:
		return f.chooseEvent(ctx, s, tok)
	case StateChoosingRole:
		return f.chooseRole(ctx, s, tok)
	}
	return Step{}, domain.ErrUnexpectedSelection
}

func (f *Flow) chooseDay(ctx context.Context, s *Session, tok domain.Token) (Step, error) {
	if tok.Action != domain.ActionChooseDay {
		return Step{}, domain.ErrUnexpectedSelection
	}
	day, err := tok.Date()
	if err != nil {
		return Step{}, fmt.Errorf("%w: %v", domain.ErrUnexpectedSelection, err)
	}
	if !calendar.Contains(f.events.CurrentWeek(), day) {
		return Step{}, fmt.Errorf("%w: %s is outside the current week", domain.ErrUnexpectedSelection, tok.Value)
	}

	events, err := f.events.EventsFor(ctx, []time.Time{day})
	if err != nil {
		return Step{}, err
	}
	if len(events) == 0 {
		return f.finish(s, OutcomeNoEventsThisDay, nil, ""), nil
	}

	choices := make([]Choice, 0, len(events))
	for i := range events {
		ev := events[i]
		choices = append(choices, Choice{Token: domain.IDToken(domain.ActionChooseEvent, ev.ID), Event: &ev})
	}
	s.State = StateChoosingEvent
	s.Date = day
	s.touch(f.clock.Now())
	return Step{State: s.State, Choices: choices}, nil
}

func (f *Flow) chooseEvent(ctx context.Context, s *Session, tok domain.Token) (Step, error) {
	if tok.Action != domain.ActionChooseEvent {
		return Step{}, domain.ErrUnexpectedSelection
	}
	id, err := tok.ID()
	if err != nil {
		return Step{}, fmt.Errorf("%w: %v", domain.ErrUnexpectedSelection, err)
	}

	ev, err := f.events.EventByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return f.finish(s, OutcomeEventNotFound, nil, ""), nil
		}
		return Step{}, err
	}
	if !calendar.SameDay(ev.Date, s.Date) {
		return Step{}, fmt.Errorf("%w: event %d is not on the chosen day", domain.ErrUnexpectedSelection, id)
	}
	if len(ev.Roles) == 0 {
		return f.finish(s, OutcomeNoRolesForEvent, nil, ""), nil
	}

	choices := make([]Choice, 0, len(ev.Roles))
	for i := range ev.Roles {
		role := ev.Roles[i]
		choices = append(choices, Choice{Token: domain.IDToken(domain.ActionChooseRole, role.ID), Event: ev, Role: &role})
	}
	s.State = StateChoosingRole
	s.EventID = ev.ID
	s.touch(f.clock.Now())
	return Step{State: s.State, Choices: choices}, nil
}

func (f *Flow) chooseRole(ctx context.Context, s *Session, tok domain.Token) (Step, error) {
	if tok.Action != domain.ActionChooseRole {
		return Step{}, domain.ErrUnexpectedSelection
	}
	roleID, err := tok.ID()
	if err != nil {
		return Step{}, fmt.Errorf("%w: %v", domain.ErrUnexpectedSelection, err)
	}

	res, err := f.registry.Signup(ctx, s.EventID, roleID, s.Actor.Handle)
	switch {
	case errors.Is(err, domain.ErrActorMissing):
		return f.finish(s, OutcomeMissingActorIdentity, nil, ""), nil
	case errors.Is(err, domain.ErrEventNotFound):
		return f.finish(s, OutcomeEventNotFound, nil, ""), nil
	case errors.Is(err, domain.ErrRoleNotFound):
		return f.finish(s, OutcomeRoleNotFound, nil, ""), nil
	case err != nil:
		return Step{}, err
	}

	p := res.Participation
	if res.AlreadyRegistered {
		return f.finish(s, OutcomeAlreadyRegistered, &p, ""), nil
	}
	return f.finish(s, OutcomeSigned, &p, res.Summary), nil
}

func (f *Flow) finish(s *Session, outcome Outcome, p *entities.Participation, summary string) Step {
	s.State = StateTerminal
	s.Outcome = outcome
	s.Participation = p
	s.touch(f.clock.Now())
	f.logger.Debug("flow finished", "session", s.ID, "outcome", outcome.String())
	return Step{State: StateTerminal, Outcome: outcome, Participation: p, Summary: summary}
}

func hasEventOn(events []entities.Event, day time.Time) bool {
	for i := range events {
		if calendar.SameDay(events[i].Date, day) {
			return true
		}
	}
	return false
}
