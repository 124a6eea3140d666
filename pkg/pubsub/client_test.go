package pubsub

import (
	"context"
	"testing"

	"github.com/sbpremium/gifts-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project, name, want string
	}{
		{"proj", "gift-events", "projects/proj/topics/gift-events"},
		{"proj", " gift-events ", "projects/proj/topics/gift-events"},
		{"", "projects/other/topics/x", "projects/other/topics/x"},
		{"", "gift-events", ""},
		{"proj", "", ""},
	}
	for _, tc := range cases {
		if got := TopicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("TopicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.GCPConfig{}, config.PubSubConfig{GiftEventsTopic: "t"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.PubSubConfig{}, nil); err != errNoTopic {
		t.Fatalf("expected topic error, got %v", err)
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if _, err := c.Publish(context.Background(), []byte("{}"), nil); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}
