package harness

import (
	"sync"
	"testing"
)

func TestOutputsGetBeforeSet(t *testing.T) {
	registry := NewOutputs()

	_, err := registry.Get("a")
	if !IsOutputNotReady(err) {
		t.Fatalf("expected output-not-ready error, got %v", err)
	}
	if registry.Ready() {
		t.Error("registry reports ready before Set")
	}
}

func TestOutputsSetThenGet(t *testing.T) {
	registry := NewOutputs()
	registry.Set(map[string]string{"a": "1"})

	got, err := registry.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "1" {
		t.Errorf("expected a=1, got %q", got)
	}
}

func TestOutputsSecondSetOverwrites(t *testing.T) {
	registry := NewOutputs()
	registry.Set(map[string]string{"a": "1", "b": "x"})
	registry.Set(map[string]string{"a": "2"})

	got, err := registry.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "2" {
		t.Errorf("expected last write to win, got a=%q", got)
	}
	// Overwrite is wholesale, not a merge.
	if got, _ := registry.Get("b"); got != "" {
		t.Errorf("expected b to be gone after overwrite, got %q", got)
	}
}

func TestOutputsSetCopiesInput(t *testing.T) {
	registry := NewOutputs()
	values := map[string]string{"a": "1"}
	registry.Set(values)
	values["a"] = "mutated"

	if got, _ := registry.Get("a"); got != "1" {
		t.Errorf("registry shares storage with the caller's map, got a=%q", got)
	}
}

func TestOutputsConcurrentReads(t *testing.T) {
	registry := NewOutputs()
	registry.Set(map[string]string{"a": "1"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := registry.Get("a"); err != nil || got != "1" {
				t.Errorf("concurrent Get = (%q, %v)", got, err)
			}
		}()
	}
	wg.Wait()
}
