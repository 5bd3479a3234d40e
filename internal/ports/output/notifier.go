package output

import "context"

// Notifier receives human-readable change messages. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
