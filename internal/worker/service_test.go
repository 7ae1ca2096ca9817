package worker

import (
	"testing"

	"github.com/loyalty-next/internal/config"
)

func TestNewServiceQueueDisabled(t *testing.T) {
	if _, err := NewService(nil, NewConsumer(nil)); err == nil {
		t.Fatalf("expected error for nil queue config")
	}
	cfg := &config.QueueConfig{Enabled: false}
	if _, err := NewService(cfg, NewConsumer(nil)); err == nil {
		t.Fatalf("expected error for disabled queue")
	}
}

func TestNewServiceNilConsumer(t *testing.T) {
	cfg := &config.QueueConfig{Enabled: true}
	if _, err := NewService(cfg, nil); err == nil {
		t.Fatalf("expected error for nil consumer")
	}
}
