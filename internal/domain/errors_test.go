package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeAndKindUnwrap(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("signup: %w", ErrRoleNotFound)
	if got := Code(wrapped); got != "role_not_found" {
		t.Fatalf("Code = %q, want role_not_found", got)
	}
	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("KindOf = %v, want %v", got, KindNotFound)
	}
	if !errors.Is(wrapped, ErrRoleNotFound) {
		t.Fatal("errors.Is should match the sentinel")
	}
}

func TestCodeOfForeignError(t *testing.T) {
	t.Parallel()

	err := errors.New("connection refused")
	if got := Code(err); got != "" {
		t.Fatalf("Code = %q, want empty", got)
	}
	if got := KindOf(err); got != KindUnknown {
		t.Fatalf("KindOf = %v, want unknown", got)
	}
}
