package main

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short unchanged", "Alien", 50, "Alien"},
		{"exact unchanged", "abcde", 5, "abcde"},
		{"long truncated", "abcdefghij", 8, "abcde..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestFormatOptional(t *testing.T) {
	if got := formatOptional(nil); got != "n/a" {
		t.Errorf("formatOptional(nil) = %q, want n/a", got)
	}
	v := 0.5
	if got := formatOptional(&v); got != "0.5000" {
		t.Errorf("formatOptional(0.5) = %q, want 0.5000", got)
	}
}
