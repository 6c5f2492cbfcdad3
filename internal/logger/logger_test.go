package logger

import "testing"

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %d, want %d", in, got, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestEnabledRespectsThreshold(t *testing.T) {
	defer SetLevel(LevelInfo)

	SetLevel(LevelWarn)
	if enabled(LevelInfo) {
		t.Fatalf("info should be suppressed at warn level")
	}
	if !enabled(LevelError) {
		t.Fatalf("error should pass at warn level")
	}
}
