package index

import (
	"fmt"
	"sync"
	"testing"
)

func TestNewStatusIndex(t *testing.T) {
	index := NewStatusIndex()
	if index == nil {
		t.Fatal("NewStatusIndex() returned nil")
	}
	if got := len(index.All()); got != 0 {
		t.Errorf("NewStatusIndex() should start empty, got %v", got)
	}
	if !index.GetLastSweep().IsZero() {
		t.Error("NewStatusIndex() should not report a sweep")
	}
}

func TestUpdate(t *testing.T) {
	index := NewStatusIndex()

	index.Update([]BackendStatus{
		{Name: "text-statistics", Up: true},
		{Name: "disciplines", Up: false, Error: "connection refused"},
	})

	all := index.All()
	if len(all) != 2 {
		t.Fatalf("Update() stored %v statuses, want 2", len(all))
	}
	if all[0].Name != "text-statistics" || all[1].Name != "disciplines" {
		t.Errorf("All() order = %v, %v", all[0].Name, all[1].Name)
	}
	if index.UpCount() != 1 {
		t.Errorf("UpCount() = %v, want 1", index.UpCount())
	}
	if index.GetLastSweep().IsZero() {
		t.Error("Update() should record the sweep time")
	}
}

func TestUpdateOverwrites(t *testing.T) {
	index := NewStatusIndex()

	index.Update([]BackendStatus{{Name: "service1", Up: true}})
	index.Update([]BackendStatus{{Name: "service2"}, {Name: "service3"}})

	if index.Count() != 2 {
		t.Errorf("Update() should overwrite, got %v statuses want 2", index.Count())
	}
	if _, ok := index.Get("service1"); ok {
		t.Error("Update() should drop backends missing from the sweep")
	}
}

func TestSetAndGet(t *testing.T) {
	index := NewStatusIndex()

	index.Set(BackendStatus{Name: "svc", Up: false})
	index.Set(BackendStatus{Name: "svc", Up: true})

	s, ok := index.Get("svc")
	if !ok {
		t.Fatal("Get() did not find svc")
	}
	if !s.Up {
		t.Error("Set() should replace the previous status")
	}
	if index.Count() != 1 {
		t.Errorf("Count() = %v, want 1", index.Count())
	}
}

func TestGetMissing(t *testing.T) {
	index := NewStatusIndex()
	if _, ok := index.Get("nope"); ok {
		t.Error("Get() should not find an unknown backend")
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewStatusIndex()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			index.Set(BackendStatus{Name: fmt.Sprintf("svc-%d", id), Up: true})
		}(i)
		go func() {
			defer wg.Done()
			_ = index.All()
			_ = index.UpCount()
		}()
	}
	wg.Wait()

	if index.Count() != 10 {
		t.Errorf("Count() = %v, want 10", index.Count())
	}
}
