package cmd

import "testing"

// TestMaskKey verifies masking keeps only the key's edges and that short keys
// are fully redacted instead of panicking or leaking.
func TestMaskKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"long key", "sk-abcdefghij", "sk-a*****ghij"},
		{"nine chars", "123456789", "1234*6789"},
		{"exactly eight", "12345678", "****"},
		{"short", "abc", "****"},
		{"single char", "x", "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskKey(tt.in); got != tt.want {
				t.Errorf("maskKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
