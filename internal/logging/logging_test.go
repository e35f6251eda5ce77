package logging

import "testing"

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := New(level, false); err != nil {
			t.Errorf("New(%q, false) error: %v", level, err)
		}
		if _, err := New(level, true); err != nil {
			t.Errorf("New(%q, true) error: %v", level, err)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Fatal("New(\"loud\") = nil error, want failure")
	}
}
