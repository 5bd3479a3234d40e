package output

// T renders user-facing messages.
type T interface {
	// T renders the message identified by key for the given locale; an empty
	// locale selects the default one. data feeds template placeholders and
	// may be nil.
	T(locale, key string, data map[string]any) string
}
