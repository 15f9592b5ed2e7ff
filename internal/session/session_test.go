package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sectioncal/internal/dataset"
	"sectioncal/internal/model"
	"sectioncal/internal/schedule"
)

func resolver() *schedule.Resolver {
	d := &dataset.Dataset{
		Class: model.ClassTimetable{
			Days:      []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
			Slots:     []string{"9.00AM-10.20AM"},
			Subjects:  []string{"CSE110"},
			Faculties: []string{"Dr. X"},
			Rooms:     []string{"301"},
			Sections:  []string{"S01", "S02"},
			Patterns: []model.ClassPattern{{
				Days:        []int{1},
				Assignments: []model.ClassAssignment{{Section: 0}},
			}},
		},
	}
	return schedule.NewResolver(d, "S")
}

func TestSubmit(t *testing.T) {
	cache := &MemoryCache{}
	s := New(resolver(), cache)

	if err := s.Submit("1"); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if s.State() != StateSchedule || s.Section() != "S01" || s.Fragment() != "#S01" {
		t.Errorf("state = %v %q %q", s.State(), s.Section(), s.Fragment())
	}
	if len(s.Grid()) != 1 {
		t.Errorf("grid rows = %d, want 1", len(s.Grid()))
	}
	if code, _ := cache.Load(); code != "S01" {
		t.Errorf("cache = %q, want S01", code)
	}
}

func TestSubmitNotFoundHasNoSideEffects(t *testing.T) {
	cache := &MemoryCache{}
	s := New(resolver(), cache)

	err := s.Submit("S99")
	if !errors.Is(err, schedule.ErrSectionNotFound) {
		t.Fatalf("Submit(S99) err = %v, want ErrSectionNotFound", err)
	}
	if s.State() != StateInput || s.Fragment() != "" || s.Grid() != nil {
		t.Errorf("state changed on failed submit: %v %q", s.State(), s.Fragment())
	}
	if code, _ := cache.Load(); code != "" {
		t.Errorf("cache = %q, want empty", code)
	}
}

func TestBack(t *testing.T) {
	cache := &MemoryCache{}
	s := New(resolver(), cache)
	if err := s.Submit("S02"); err != nil {
		t.Fatal(err)
	}
	if err := s.Back(); err != nil {
		t.Fatalf("Back() error: %v", err)
	}
	if s.State() != StateInput || s.Fragment() != "" {
		t.Errorf("state = %v %q", s.State(), s.Fragment())
	}
	if code, _ := cache.Load(); code != "" {
		t.Errorf("cache = %q after Back, want empty", code)
	}
}

func TestNavigate(t *testing.T) {
	cache := &MemoryCache{}
	s := New(resolver(), cache)

	if err := s.Navigate("#s02"); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateSchedule || s.Section() != "S02" || s.Fragment() != "#S02" {
		t.Errorf("after #s02: %v %q %q", s.State(), s.Section(), s.Fragment())
	}

	// Empty fragment leaves the cache alone.
	if err := s.Navigate(""); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateInput {
		t.Errorf("after empty fragment: %v", s.State())
	}
	if code, _ := cache.Load(); code != "S02" {
		t.Errorf("cache = %q, want S02", code)
	}

	if err := s.Navigate("#S77"); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateInput || s.Fragment() != "" {
		t.Errorf("after unknown fragment: %v %q", s.State(), s.Fragment())
	}
}

func TestRestoreFromFileCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	cache := NewFileCache(path)

	s := New(resolver(), cache)
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore() on empty cache error: %v", err)
	}
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}

	if err := s.Submit("1"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("state file not written: %v", err)
	}
	if string(data) != "last_section: S01\n" {
		t.Errorf("state file = %q", data)
	}

	restored := New(resolver(), NewFileCache(path))
	if err := restored.Restore(); err != nil {
		t.Fatal(err)
	}
	if restored.State() != StateSchedule || restored.Section() != "S01" {
		t.Errorf("restored = %v %q", restored.State(), restored.Section())
	}
}

func TestRestoreDropsStaleSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, []byte("last_section: S42\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := New(resolver(), NewFileCache(path))
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("stale state file still present: %v", err)
	}
}

func TestFileCacheClearMissing(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "none.yaml"))
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on missing file: %v", err)
	}
}
