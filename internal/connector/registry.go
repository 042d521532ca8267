package connector

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Constructor creates a Connector.
type Constructor func() Connector

var (
	mu        sync.RWMutex
	providers = map[string]Constructor{}
)

// Register makes a connector available under name. It is meant to be
// called from init and panics on a duplicate name.
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := providers[name]; dup {
		panic("connector: Register called twice for " + name)
	}
	providers[name] = ctor
}

// Get returns the constructor registered under name.
func Get(name string) (Constructor, error) {
	mu.RLock()
	ctor, ok := providers[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("connector: unknown provider %q (have: %s)", name, strings.Join(Providers(), ", "))
	}
	return ctor, nil
}

// Providers returns the registered names, sorted.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
