// Package service starts and stops the optional subsystems around the simulation
// (speaker output, telemetry server) in dependency order
package service

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

var ErrCircularDependency = errors.New("service: circular dependency")

// Service is a long-lived subsystem with an explicit lifecycle
type Service interface {
	// Name is the unique identifier used by Dependencies
	Name() string

	// Dependencies names services that must start before this one
	Dependencies() []string

	// Start acquires resources and launches background goroutines
	Start() error

	// Stop releases resources; must be idempotent
	Stop() error
}

// Optional is implemented by services whose start failure is logged and skipped
// rather than aborting the whole hub
type Optional interface {
	Optional() bool
}

// Hub holds services and runs their lifecycle
type Hub struct {
	mu       sync.Mutex
	services map[string]Service
	order    []string // registration order, the tie-break for the sort
	started  []string
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{services: make(map[string]Service)}
}

// Register adds svc; names must be unique
func (h *Hub) Register(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := svc.Name()
	if _, exists := h.services[name]; exists {
		return fmt.Errorf("service already registered: %s", name)
	}
	h.services[name] = svc
	h.order = append(h.order, name)
	return nil
}

// Get returns the service registered under name
func (h *Hub) Get(name string) (Service, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	svc, ok := h.services[name]
	return svc, ok
}

// Running reports whether name started successfully and has not been stopped
func (h *Hub) Running(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, n := range h.started {
		if n == name {
			return true
		}
	}
	return false
}

// StartAll starts services in dependency order
// A required service failure stops the already-started ones in reverse order
// Dependents of a skipped optional service are skipped as well
func (h *Hub) StartAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sorted, err := h.sort()
	if err != nil {
		return err
	}

	h.started = nil
	skipped := make(map[string]bool)
	for _, name := range sorted {
		svc := h.services[name]
		if dep := firstSkipped(svc.Dependencies(), skipped); dep != "" {
			log.Printf("service: %s skipped, dependency %s unavailable", name, dep)
			skipped[name] = true
			continue
		}

		if err := svc.Start(); err != nil {
			if isOptional(svc) {
				log.Printf("service: %s unavailable: %v", name, err)
				skipped[name] = true
				continue
			}
			h.stopStarted()
			return fmt.Errorf("service %s start failed: %w", name, err)
		}
		h.started = append(h.started, name)
		log.Printf("service: %s started", name)
	}
	return nil
}

// StopAll stops started services in reverse start order and joins their errors
func (h *Hub) StopAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopStarted()
}

func (h *Hub) stopStarted() error {
	var errs []error
	for i := len(h.started) - 1; i >= 0; i-- {
		name := h.started[i]
		if err := h.services[name].Stop(); err != nil {
			errs = append(errs, fmt.Errorf("service %s stop: %w", name, err))
		}
	}
	h.started = nil
	return errors.Join(errs...)
}

// sort orders services with Kahn's algorithm, ties broken by registration order
func (h *Hub) sort() ([]string, error) {
	inDegree := make(map[string]int, len(h.services))
	dependents := make(map[string][]string)

	for _, name := range h.order {
		for _, dep := range h.services[name].Dependencies() {
			if _, ok := h.services[dep]; !ok {
				return nil, fmt.Errorf("service %s depends on unregistered service %s", name, dep)
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for _, name := range h.order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	result := make([]string, 0, len(h.order))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, name)
		for _, d := range dependents[name] {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(result) != len(h.order) {
		return nil, ErrCircularDependency
	}
	return result, nil
}

func isOptional(svc Service) bool {
	o, ok := svc.(Optional)
	return ok && o.Optional()
}

func firstSkipped(deps []string, skipped map[string]bool) string {
	for _, d := range deps {
		if skipped[d] {
			return d
		}
	}
	return ""
}
