package event

import (
	"context"
	"testing"
)

func TestDisabledPublisher(t *testing.T) {
	p, err := NewEventPublisher("", "quizbank.events")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.enabled {
		t.Fatal("Expected publisher without URI to be disabled")
	}
	if err := p.Publish(context.Background(), QuestionCreated, map[string]string{"id": "1"}); err != nil {
		t.Errorf("Disabled publisher should swallow events, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Unexpected close error: %v", err)
	}
}

func TestNilPublisher(t *testing.T) {
	var p *EventPublisher
	if err := p.Publish(context.Background(), QuestionDeleted, nil); err != nil {
		t.Errorf("Nil publisher should be a no-op, got %v", err)
	}
}
