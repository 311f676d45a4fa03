package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/shareit-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project, name, want string
	}{
		{"proj", "bookings", "projects/proj/topics/bookings"},
		{"proj", " bookings ", "projects/proj/topics/bookings"},
		{"proj", "projects/other/topics/x", "projects/other/topics/x"},
		{"", "bookings", ""},
		{"proj", "", ""},
	}
	for _, tc := range cases {
		if got := TopicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("TopicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{BookingsTopic: "t"}, nil); err == nil {
		t.Fatal("expected missing project id to fail")
	}
}

func TestNilClientHelpers(t *testing.T) {
	var c *Client
	if c.Publisher("t") != nil {
		t.Fatal("expected nil publisher")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error on nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}
