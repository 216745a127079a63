package discovery

import (
	"fmt"
	"log"
	"strconv"

	"quizbank/internal/config"

	"github.com/hashicorp/consul/api"
)

type ServiceRegistry struct {
	client *api.Client
	server config.ServerConfig
}

func NewServiceRegistry(consul config.ConsulConfig, server config.ServerConfig) (*ServiceRegistry, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = consul.ConsulAddress

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %v", err)
	}
	return &ServiceRegistry{client: client, server: server}, nil
}

func (sr *ServiceRegistry) Registration() (*api.AgentServiceRegistration, error) {
	port, err := strconv.Atoi(sr.server.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP port: %v", err)
	}
	return &api.AgentServiceRegistration{
		ID:      sr.server.ServiceID,
		Name:    sr.server.ServiceName,
		Port:    port,
		Address: sr.server.ServiceAddress,
		Check: &api.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%s/api/health", sr.server.ServiceAddress, sr.server.Port),
			Interval: "10s",
			Timeout:  "5s",
		},
		Tags: []string{"quiz", "http", "api"},
		Meta: map[string]string{
			"protocol": "http",
			"version":  "1.0",
		},
	}, nil
}

func (sr *ServiceRegistry) Register() error {
	registration, err := sr.Registration()
	if err != nil {
		return err
	}
	if err := sr.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register HTTP service with Consul: %v", err)
	}
	log.Printf("Successfully registered service %s with Consul at %s:%d",
		registration.Name, registration.Address, registration.Port)
	return nil
}

func (sr *ServiceRegistry) Deregister() error {
	if err := sr.client.Agent().ServiceDeregister(sr.server.ServiceID); err != nil {
		log.Printf("Error deregistering service: %v", err)
		return err
	}
	log.Printf("Successfully deregistered service %s from Consul", sr.server.ServiceName)
	return nil
}

// ServiceURL resolves a healthy instance of the named service to a base URL.
func (sr *ServiceRegistry) ServiceURL(serviceName string) (string, error) {
	services, _, err := sr.client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("failed to find service %s: %v", serviceName, err)
	}
	if len(services) == 0 {
		return "", fmt.Errorf("no healthy instances of service %s found", serviceName)
	}

	entry := services[0]
	address := entry.Service.Address
	if address == "" {
		address = entry.Node.Address
	}
	return fmt.Sprintf("http://%s:%d", address, entry.Service.Port), nil
}
