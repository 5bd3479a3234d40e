package domain

import (
	"errors"
	"testing"
)

func TestNormalizeTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		strict bool
		want   string
		err    error
	}{
		{in: "08:00", strict: true, want: "08:00"},
		{in: " 19:30 ", strict: true, want: "19:30"},
		{in: "8:05", strict: true, want: "08:05"},
		{in: "23:59", strict: true, want: "23:59"},
		{in: "24:00", strict: true, err: ErrInvalidTime},
		{in: "7pm", strict: true, err: ErrInvalidTime},
		{in: "12:60", strict: true, err: ErrInvalidTime},
		{in: "", strict: true, err: ErrInvalidTime},
		{in: "after lunch", strict: false, want: "after lunch"},
		{in: "   ", strict: false, err: ErrInvalidTime},
	}
	for _, tt := range tests {
		got, err := NormalizeTimeOfDay(tt.in, tt.strict)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Fatalf("NormalizeTimeOfDay(%q, %v) err = %v, want %v", tt.in, tt.strict, err, tt.err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeTimeOfDay(%q, %v) unexpected err: %v", tt.in, tt.strict, err)
		}
		if got != tt.want {
			t.Fatalf("NormalizeTimeOfDay(%q, %v) = %q, want %q", tt.in, tt.strict, got, tt.want)
		}
	}
}
