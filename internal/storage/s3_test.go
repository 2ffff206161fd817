package storage

import (
	"context"
	"testing"

	"github.com/diasporalink/backend/internal/config"
)

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{Region: "us-east-1"}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestNewS3StorageWithEndpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	store, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{
		Bucket:        "media",
		Endpoint:      "http://localhost:9000",
		Region:        "us-east-1",
		PublicBaseURL: "https://cdn.example.org/",
	})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	if store.baseURL != "https://cdn.example.org" {
		t.Fatalf("expected trailing slash trimmed got %q", store.baseURL)
	}
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"", "media/a.png", "media/a.png"},
		{"https://cdn.example.org", "media/a.png", "https://cdn.example.org/media/a.png"},
		{"https://cdn.example.org/", "/media/a.png", "https://cdn.example.org/media/a.png"},
	}
	for _, tt := range tests {
		if got := PublicURL(tt.base, tt.key); got != tt.want {
			t.Fatalf("PublicURL(%q, %q): expected %q got %q", tt.base, tt.key, tt.want, got)
		}
	}
}
