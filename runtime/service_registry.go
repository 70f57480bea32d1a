// Package runtime manages the lifecycle of the long running services of a node.
package runtime

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "registry")

// Service is a struct that can be registered into a ServiceRegistry for
// easy dependency management.
type Service interface {
	// Start spawns any goroutines required by the service.
	Start()
	// Stop terminates all goroutines belonging to the service,
	// blocking until they are all terminated.
	Stop() error
	// Status returns error if the service is not considered healthy.
	Status() error
}

// ServiceRegistry starts services in registration order and stops them in reverse.
// Services are keyed by their concrete type, so each type is registered at most once.
type ServiceRegistry struct {
	lock         sync.RWMutex
	services     map[reflect.Type]Service
	serviceTypes []reflect.Type
}

// NewServiceRegistry starts a registry instance for convenience
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[reflect.Type]Service),
	}
}

// StartAll starts each service in order of registration. A service's Start may
// block, so each runs on its own goroutine.
func (s *ServiceRegistry) StartAll() {
	s.lock.RLock()
	defer s.lock.RUnlock()
	log.Debugf("Starting %d services: %v", len(s.serviceTypes), s.serviceTypes)
	for _, kind := range s.serviceTypes {
		log.Debugf("Starting service type %v", kind)
		go s.services[kind].Start()
	}
}

// StopAll ends every service in reverse order of registration, logging any
// service that fails to stop.
func (s *ServiceRegistry) StopAll() {
	s.lock.RLock()
	defer s.lock.RUnlock()
	for i := len(s.serviceTypes) - 1; i >= 0; i-- {
		kind := s.serviceTypes[i]
		if err := s.services[kind].Stop(); err != nil {
			log.WithError(err).Errorf("Could not stop the following service: %v", kind)
		}
	}
}

// Statuses returns the health of every registered service, keyed by its type name.
func (s *ServiceRegistry) Statuses() map[string]error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	m := make(map[string]error, len(s.serviceTypes))
	for _, kind := range s.serviceTypes {
		m[kind.String()] = s.services[kind].Status()
	}
	return m
}

// RegisterService appends a service to the registry.
func (s *ServiceRegistry) RegisterService(service Service) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	kind := reflect.TypeOf(service)
	if _, exists := s.services[kind]; exists {
		return fmt.Errorf("service already exists: %v", kind)
	}
	s.services[kind] = service
	s.serviceTypes = append(s.serviceTypes, kind)
	return nil
}

// FetchService takes in a struct pointer and sets the value of that pointer
// to a service currently stored in the service registry. This ensures the input argument is
// set to the right pointer that refers to the originally registered service.
func (s *ServiceRegistry) FetchService(service interface{}) error {
	if reflect.TypeOf(service).Kind() != reflect.Ptr {
		return fmt.Errorf("input must be of pointer type, received value type instead: %T", service)
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	element := reflect.ValueOf(service).Elem()
	if running, ok := s.services[element.Type()]; ok {
		element.Set(reflect.ValueOf(running))
		return nil
	}
	return fmt.Errorf("unknown service: %T", service)
}
