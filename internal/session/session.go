// Package session holds the presentation state machine: a user is either
// entering a section identifier or looking at a resolved weekly grid. The
// last displayed section is remembered in a Cache and mirrored in a URL
// fragment for shareable links.
package session

import (
	"errors"
	"fmt"
	"strings"

	appLog "sectioncal/internal/log"
	"sectioncal/internal/model"
	"sectioncal/internal/schedule"
)

// State is the presentation state.
type State int

const (
	StateInput State = iota
	StateSchedule
)

func (s State) String() string {
	switch s {
	case StateSchedule:
		return "schedule"
	default:
		return "input"
	}
}

// Resolver is the part of schedule.Resolver the session needs.
type Resolver interface {
	Lookup(id string) (int, string, error)
	Resolve(id string) ([]model.WeeklySlot, error)
}

// Session is not safe for concurrent use; each UI owns one.
type Session struct {
	resolver Resolver
	cache    Cache

	state    State
	section  string
	grid     []model.WeeklySlot
	fragment string
}

// New starts a session in StateInput. Call Restore to pick up the cached
// section.
func New(r Resolver, c Cache) *Session {
	if c == nil {
		c = &MemoryCache{}
	}
	return &Session{resolver: r, cache: c}
}

func (s *Session) State() State { return s.state }

func (s *Session) Section() string { return s.section }

func (s *Session) Grid() []model.WeeklySlot { return s.grid }

// Fragment is the shareable URL fragment including '#', or "".
func (s *Session) Fragment() string { return s.fragment }

// Submit resolves id. On success the session moves to StateSchedule and the
// canonical code is cached and written to the fragment. A missing section
// leaves every piece of state untouched and returns the error.
func (s *Session) Submit(id string) error {
	grid, code, err := s.resolve(id)
	if err != nil {
		return err
	}
	if err := s.cache.Store(code); err != nil {
		appLog.Error("session: cache store failed", err, "section", code)
	}
	s.show(code, grid)
	return nil
}

// Back returns to StateInput and forgets the cached section.
func (s *Session) Back() error {
	s.state = StateInput
	s.section = ""
	s.grid = nil
	s.fragment = ""
	if err := s.cache.Clear(); err != nil {
		return fmt.Errorf("session: clear cache: %w", err)
	}
	return nil
}

// Navigate follows a fragment change. An empty fragment shows the input
// view without touching the cache. A known code shows its grid and is
// cached. An unknown code shows the input view and clears the fragment.
func (s *Session) Navigate(fragment string) error {
	code := strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	if code == "" {
		s.toInput()
		return nil
	}

	grid, canon, err := s.resolve(code)
	if err != nil {
		s.toInput()
		if errors.Is(err, schedule.ErrSectionNotFound) {
			return nil
		}
		return err
	}
	if err := s.cache.Store(canon); err != nil {
		appLog.Error("session: cache store failed", err, "section", canon)
	}
	s.show(canon, grid)
	return nil
}

// Restore sets the initial state from the cache: StateSchedule when the
// cached section still resolves, StateInput otherwise. A stale cached code
// is dropped.
func (s *Session) Restore() error {
	code, err := s.cache.Load()
	if err != nil {
		return fmt.Errorf("session: load cache: %w", err)
	}
	if code == "" {
		s.toInput()
		return nil
	}

	grid, canon, err := s.resolve(code)
	if err != nil {
		s.toInput()
		if errors.Is(err, schedule.ErrSectionNotFound) {
			appLog.Warn("session: cached section no longer exists", "section", code)
			return s.cache.Clear()
		}
		return err
	}
	s.show(canon, grid)
	return nil
}

func (s *Session) resolve(id string) ([]model.WeeklySlot, string, error) {
	_, code, err := s.resolver.Lookup(id)
	if err != nil {
		return nil, "", err
	}
	grid, err := s.resolver.Resolve(code)
	if err != nil {
		return nil, "", err
	}
	return grid, code, nil
}

func (s *Session) show(code string, grid []model.WeeklySlot) {
	s.state = StateSchedule
	s.section = code
	s.grid = grid
	s.fragment = "#" + code
}

func (s *Session) toInput() {
	s.state = StateInput
	s.section = ""
	s.grid = nil
	s.fragment = ""
}
