package instance

import "testing"

func TestIDPrecedence(t *testing.T) {
	t.Setenv("SHAREIT_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	t.Setenv("HOSTNAME", "")
	if got := ID(); got != "local" {
		t.Fatalf("expected fallback, got %q", got)
	}

	t.Setenv("HOSTNAME", "host-1")
	if got := ID(); got != "host-1" {
		t.Fatalf("expected hostname, got %q", got)
	}

	t.Setenv("DYNO", "web.1")
	if got := ID(); got != "web.1" {
		t.Fatalf("expected dyno, got %q", got)
	}

	t.Setenv("SHAREIT_INSTANCE_ID", "api-7")
	if got := ID(); got != "api-7" {
		t.Fatalf("expected explicit id, got %q", got)
	}
}
