// Package registry provides a global registry for controller policies.
// Policies register themselves in init() functions, allowing the CLI
// to discover and instantiate them without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/lunar-lander/internal/protocol"
)

// Policy decides the next control from the last observation.
// Policies hold their own notion of which keys are down; the observation
// does not carry it.
type Policy interface {
	// Name returns the registered identifier (e.g., "hover").
	Name() string

	// Description returns a one-line summary for listings.
	Description() string

	// Reset forgets held keys. Called at the start of every episode.
	Reset()

	// Act returns the request to send for obs.
	Act(obs protocol.Observation) protocol.StepRequest
}

// PolicyInfo contains metadata about a registered policy.
type PolicyInfo struct {
	Name        string
	Description string
}

// Factory creates a new policy. seed drives any randomness.
type Factory func(seed int64) Policy

var (
	factories    = make(map[string]Factory)
	descriptions = make(map[string]string)
	mu           sync.RWMutex
)

// Register adds a policy factory to the registry.
// Typically called from an init() function.
// Panics if a policy with the same name is already registered.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("registry: policy %q already registered", name))
	}

	factories[name] = f

	// Get description by creating a temporary instance
	descriptions[name] = f(0).Description()
}

// List returns information about all registered policies, sorted by name.
func List() []PolicyInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]PolicyInfo, 0, len(factories))
	for name := range factories {
		result = append(result, PolicyInfo{
			Name:        name,
			Description: descriptions[name],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// Create instantiates a new policy by name.
// Returns an error if the name is not registered.
func Create(name string, seed int64) (Policy, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("registry: unknown policy %q", name)
	}

	return f(seed), nil
}

// Exists checks if a policy with the given name is registered.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[name]
	return ok
}
