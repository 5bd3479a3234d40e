package entities

// Role is a named responsibility shared across events.
type Role struct {
	ID   int64
	Name string
}
