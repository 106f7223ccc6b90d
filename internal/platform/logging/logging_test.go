package logging

import "testing"

func TestNew(t *testing.T) {
	for _, lvl := range []string{"", "debug", "INFO", "warn", "error"} {
		l, err := New(lvl)
		if err != nil {
			t.Fatalf("New(%q) err=%v", lvl, err)
		}
		_ = l.Sync()
	}
	if _, err := New("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
