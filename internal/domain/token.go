package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Action tags the selection payloads exchanged with the transport.
type Action string

const (
	ActionChooseDay           Action = "chooseDay"
	ActionChooseEvent         Action = "chooseEvent"
	ActionChooseRole          Action = "chooseRole"
	ActionCancelParticipation Action = "cancelParticipation"
	ActionCancelAll           Action = "cancelAll"
	ActionManageEvent         Action = "manageEvent"
	ActionSetTime             Action = "setTime"
	ActionDeleteEvent         Action = "deleteEvent"
	ActionAddRole             Action = "addRole"
	ActionCancel              Action = "cancel"
)

const tokenSep = "|"

// DateLayout is the wire format of dates inside tokens.
const DateLayout = "2006-01-02"

// Token pairs an action with an optional identifier, e.g. "chooseRole|3".
type Token struct {
	Action Action
	Value  string
}

func (t Token) String() string {
	if t.Value == "" {
		return string(t.Action)
	}
	return string(t.Action) + tokenSep + t.Value
}

// ID parses the value as a numeric identifier.
func (t Token) ID() (int64, error) {
	id, err := strconv.ParseInt(t.Value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("token %s: invalid id %q", t.Action, t.Value)
	}
	return id, nil
}

// Date parses the value as a civil date.
func (t Token) Date() (time.Time, error) {
	d, err := time.Parse(DateLayout, t.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("token %s: invalid date %q", t.Action, t.Value)
	}
	return d, nil
}

var knownActions = map[Action]bool{
	ActionChooseDay:           true,
	ActionChooseEvent:         true,
	ActionChooseRole:          true,
	ActionCancelParticipation: true,
	ActionCancelAll:           true,
	ActionManageEvent:         true,
	ActionSetTime:             true,
	ActionDeleteEvent:         true,
	ActionAddRole:             true,
	ActionCancel:              true,
}

// ParseToken parses "action" or "action|value".
func ParseToken(raw string) (Token, error) {
	action, value, _ := strings.Cut(strings.TrimSpace(raw), tokenSep)
	if !knownActions[Action(action)] {
		return Token{}, fmt.Errorf("unknown action in token %q", raw)
	}
	return Token{Action: Action(action), Value: value}, nil
}

// DayToken builds chooseDay|<date>.
func DayToken(date time.Time) Token {
	return Token{Action: ActionChooseDay, Value: date.Format(DateLayout)}
}

// IDToken builds action|<id>.
func IDToken(action Action, id int64) Token {
	return Token{Action: action, Value: strconv.FormatInt(id, 10)}
}
