package output

// Store bundles the repositories of one storage backend.
type Store interface {
	Events() EventRepository
	Roles() RoleRepository
	Participations() ParticipationRepository
	Close() error
}
