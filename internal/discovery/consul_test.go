package discovery

import (
	"testing"

	"quizbank/internal/config"
)

func TestRegistration(t *testing.T) {
	sr, err := NewServiceRegistry(config.ConsulConfig{ConsulAddress: "127.0.0.1:8500"}, config.ServerConfig{
		Port:           "3000",
		ServiceName:    "quizbank",
		ServiceAddress: "quizbank",
		ServiceID:      "quizbank-local",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	reg, err := sr.Registration()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if reg.ID != "quizbank-local" || reg.Port != 3000 {
		t.Errorf("Unexpected registration: %+v", reg)
	}
	if reg.Check.HTTP != "http://quizbank:3000/api/health" {
		t.Errorf("Expected health check on /api/health, got %s", reg.Check.HTTP)
	}
}

func TestRegistrationRejectsBadPort(t *testing.T) {
	sr, _ := NewServiceRegistry(config.ConsulConfig{ConsulAddress: "127.0.0.1:8500"}, config.ServerConfig{Port: "http"})
	if _, err := sr.Registration(); err == nil {
		t.Error("Expected error for non-numeric port")
	}
}
