package hooks

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

// TestEvent is a simple event type for testing
type TestEvent struct {
	Value string
	Order []string
	Mutex sync.Mutex
}

// AddToOrder adds a value to the order slice in a thread-safe manner
func (e *TestEvent) AddToOrder(value string) {
	e.Mutex.Lock()
	defer e.Mutex.Unlock()
	e.Order = append(e.Order, value)
}

func TestRegistryBasic(t *testing.T) {
	registry := NewRegistry[*TestEvent]()

	if registry.Count("JOIN") != 0 {
		t.Errorf("Expected empty registry, got %d hooks", registry.Count("JOIN"))
	}

	registry.Register("JOIN", func(e *TestEvent) error {
		e.Value = "modified"
		return nil
	})

	if registry.Count("JOIN") != 1 {
		t.Errorf("Expected 1 hook, got %d hooks", registry.Count("JOIN"))
	}

	event := &TestEvent{Value: "original"}
	if err := registry.Run("PART", event); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if event.Value != "original" {
		t.Errorf("Hook for JOIN ran on PART")
	}

	if err := registry.Run("JOIN", event); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if event.Value != "modified" {
		t.Errorf("Expected event value to be 'modified', got '%s'", event.Value)
	}

	registry.Clear()

	if registry.Count("JOIN") != 0 {
		t.Errorf("Expected empty registry after clear, got %d hooks", registry.Count("JOIN"))
	}
}

func TestRegistryPriority(t *testing.T) {
	registry := NewRegistry[*TestEvent]()

	registry.RegisterWithPriority("MODE", func(e *TestEvent) error {
		e.AddToOrder("third")
		return nil
	}, 5)

	registry.RegisterWithPriority(Wildcard, func(e *TestEvent) error {
		e.AddToOrder("first")
		return nil
	}, -5)

	registry.Register("MODE", func(e *TestEvent) error {
		e.AddToOrder("second")
		return nil
	})

	registry.Register(Wildcard, func(e *TestEvent) error {
		e.AddToOrder("second-wildcard")
		return nil
	})

	event := &TestEvent{}
	registry.Run("MODE", event)

	expected := []string{"first", "second", "second-wildcard", "third"}
	if strings.Join(event.Order, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected execution order %v, got %v", expected, event.Order)
	}
}

func TestRegistryErrors(t *testing.T) {
	registry := NewRegistry[*TestEvent]()

	expectedError := errors.New("hook error")
	registry.Register("KICK", func(e *TestEvent) error {
		return expectedError
	})

	ran := false
	registry.Register("KICK", func(e *TestEvent) error {
		ran = true
		return nil
	})

	err := registry.Run("KICK", &TestEvent{})
	if !errors.Is(err, expectedError) {
		t.Errorf("Expected wrapped hook error, got %v", err)
	}
	if !ran {
		t.Errorf("A failing hook stopped the next one")
	}
}

func TestRegistryPanic(t *testing.T) {
	registry := NewRegistry[*TestEvent]()

	registry.Register("QUIT", func(e *TestEvent) error {
		panic("test panic")
	})

	ran := false
	registry.Register("QUIT", func(e *TestEvent) error {
		ran = true
		return nil
	})

	err := registry.Run("QUIT", &TestEvent{})
	if err == nil || !strings.Contains(err.Error(), "panic in hook") {
		t.Errorf("Expected panic error, got %v", err)
	}
	if !ran {
		t.Errorf("A panicking hook stopped the next one")
	}
}

func TestRegistryConcurrentRegistration(t *testing.T) {
	registry := NewRegistry[*TestEvent]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.Register("PRIVMSG", func(e *TestEvent) error {
				e.AddToOrder("x")
				return nil
			})
		}()
	}
	wg.Wait()

	event := &TestEvent{}
	registry.Run("PRIVMSG", event)
	if len(event.Order) != 50 {
		t.Errorf("Expected 50 hook runs, got %d", len(event.Order))
	}
}
