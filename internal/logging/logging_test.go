package logging

import "testing"

func TestNew(t *testing.T) {
	for _, tc := range []struct{ level, format string }{
		{"debug", "json"},
		{"info", "console"},
		{"warn", "json"},
		{"error", "json"},
		{"bogus", ""},
	} {
		l, err := New(tc.level, tc.format)
		if err != nil {
			t.Fatalf("New(%q, %q) failed: %v", tc.level, tc.format, err)
		}
		if l == nil {
			t.Fatalf("New(%q, %q) returned nil logger", tc.level, tc.format)
		}
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Error("Expected a no-op logger for nil input")
	}
}
