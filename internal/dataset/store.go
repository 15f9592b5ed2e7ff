package dataset

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	appLog "sectioncal/internal/log"
)

// Store holds the current snapshot. Readers call Current and never block;
// Reload swaps in a fully validated replacement or keeps the old one.
type Store struct {
	loader  *Loader
	sources Sources
	current atomic.Pointer[Dataset]
	loaded  atomic.Int64 // unix nanos of the last successful load
}

// NewStore builds a Store without loading; call Reload before Current.
func NewStore(loader *Loader, sources Sources) *Store {
	return &Store{loader: loader, sources: sources}
}

// NewStaticStore wraps an already built snapshot, for tests and one-shot
// CLI runs.
func NewStaticStore(d *Dataset) *Store {
	s := &Store{}
	s.current.Store(d)
	s.loaded.Store(time.Now().UnixNano())
	return s
}

// Current returns the active snapshot, or nil before the first load.
func (s *Store) Current() *Dataset {
	return s.current.Load()
}

// LoadedAt reports when the active snapshot was loaded.
func (s *Store) LoadedAt() time.Time {
	n := s.loaded.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Reload loads both sources again. On failure the previous snapshot stays
// active and the error is returned.
func (s *Store) Reload(ctx context.Context) error {
	if s.loader == nil {
		return errors.New("dataset: static store cannot reload")
	}
	d, err := s.loader.Load(ctx, s.sources)
	if err != nil {
		return err
	}
	s.current.Store(d)
	s.loaded.Store(time.Now().UnixNano())
	appLog.Info("dataset loaded",
		"sections", len(d.Class.Sections),
		"class_patterns", len(d.Class.Patterns),
		"dining_patterns", len(d.Dining.Patterns),
	)
	return nil
}

// StartRefresh reloads the datasets on the given cron spec until ctx is
// cancelled. An empty spec is a no-op.
func (s *Store) StartRefresh(ctx context.Context, spec string) error {
	if spec == "" {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		reloadCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := s.Reload(reloadCtx); err != nil {
			appLog.Error("dataset refresh failed; keeping previous snapshot", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	appLog.Info("dataset refresh scheduled", "cron", spec)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}
