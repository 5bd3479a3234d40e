package entities

import "strings"

// Actor is the person driving a dialogue. Handle is the stable identity stored
// on participations; IsAdmin is decided by the transport boundary.
type Actor struct {
	ID      string
	Handle  string
	IsAdmin bool
}

// HasIdentity reports whether the actor carries a usable handle.
func (a Actor) HasIdentity() bool {
	return strings.TrimSpace(a.Handle) != ""
}
