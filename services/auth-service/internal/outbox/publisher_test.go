package outbox

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestNewPublisherDefaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPublisher(nil, nil, logger, PublisherConfig{Brokers: "kafka-1:9092, kafka-2:9092"})

	if len(p.brokers) != 2 || p.brokers[0] != "kafka-1:9092" || p.brokers[1] != "kafka-2:9092" {
		t.Fatalf("brokers = %v", p.brokers)
	}
	if p.pollEvery != 2*time.Second {
		t.Fatalf("pollEvery = %s, want 2s", p.pollEvery)
	}
	if p.batchSize != 50 {
		t.Fatalf("batchSize = %d, want 50", p.batchSize)
	}
}

func TestPublisherRunReturnsWithoutBrokers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPublisher(nil, nil, logger, PublisherConfig{Brokers: ""})

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return with no brokers configured")
	}
}
