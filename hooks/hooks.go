// Package hooks provides named hook registration and execution with priority support.
package hooks

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"sync"
)

// Wildcard is the event name whose hooks run for every event
const Wildcard = "*"

// Hook defines a generic hook function that returns an error if it fails
type Hook[T any] func(event T) error

// HookInfo stores information about a registered hook including its priority
type HookInfo[T any] struct {
	Name     string  // Name of the hook function
	Hook     Hook[T] // The hook function itself
	Priority int64   // Priority value (lower values run first, like Unix nice)
	seq      uint64
}

// Registry manages hooks for named events carrying a value of type T
type Registry[T any] struct {
	mu    sync.RWMutex
	hooks map[string][]HookInfo[T]
	seq   uint64
}

// NewRegistry creates a new hook registry for the given event type
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		hooks: make(map[string][]HookInfo[T]),
	}
}

// Register adds a hook for event with default priority (0)
func (r *Registry[T]) Register(event string, hook Hook[T]) {
	r.RegisterWithPriority(event, hook, 0)
}

// RegisterWithPriority adds a hook for event with the specified priority.
// Hooks with equal priority run in registration order.
func (r *Registry[T]) RegisterWithPriority(event string, hook Hook[T], priority int64) {
	name := runtime.FuncForPC(reflect.ValueOf(hook).Pointer()).Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.hooks[event] = append(r.hooks[event], HookInfo[T]{
		Name:     name,
		Hook:     hook,
		Priority: priority,
		seq:      r.seq,
	})
}

// Run executes the hooks registered for event and for Wildcard, lowest
// priority first. A failing or panicking hook does not stop the others; all
// failures are returned joined.
func (r *Registry[T]) Run(event string, value T) error {
	r.mu.RLock()
	hooks := make([]HookInfo[T], 0, len(r.hooks[event])+len(r.hooks[Wildcard]))
	hooks = append(hooks, r.hooks[event]...)
	if event != Wildcard {
		hooks = append(hooks, r.hooks[Wildcard]...)
	}
	r.mu.RUnlock()

	if len(hooks) == 0 {
		return nil
	}

	sort.SliceStable(hooks, func(i, j int) bool {
		if hooks[i].Priority != hooks[j].Priority {
			return hooks[i].Priority < hooks[j].Priority
		}
		return hooks[i].seq < hooks[j].seq
	})

	var errs []error
	for _, info := range hooks {
		if err := call(info, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func call[T any](info HookInfo[T], value T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in hook %s: %v", info.Name, r)
		}
	}()

	if err := info.Hook(value); err != nil {
		return fmt.Errorf("hook %s: %w", info.Name, err)
	}
	return nil
}

// Clear removes all hooks from the registry
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = make(map[string][]HookInfo[T])
}

// Count returns the number of hooks registered for event
func (r *Registry[T]) Count(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.hooks[event])
}
