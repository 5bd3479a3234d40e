package discord

import "rotabot/internal/domain"

// TransientErrorKey is the catalog entry shown for failures that are not
// domain errors.
const TransientErrorKey = "common.transient_error"

// DomainErrorKey maps err to the catalog entry of its domain code, e.g.
// "error.event_not_found". Anything else maps to TransientErrorKey.
func DomainErrorKey(err error) string {
	if code := domain.Code(err); code != "" {
		return "error." + code
	}
	return TransientErrorKey
}
