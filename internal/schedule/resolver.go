// Package schedule resolves one section's weekly grid from a dataset
// snapshot.
package schedule

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"sectioncal/internal/dataset"
	"sectioncal/internal/model"
	"sectioncal/internal/timeparse"
)

// ErrSectionNotFound is returned when a lookup key matches no section.
var ErrSectionNotFound = errors.New("schedule: section not found")

// NormalizeSection turns user input into the dataset's section-code shape:
// bare digits become prefix + two-digit zero-padded number ("1" -> "S01").
// Anything else is returned trimmed.
func NormalizeSection(input, prefix string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return s
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && isDigits(s) {
		return fmt.Sprintf("%s%02d", prefix, n)
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Resolver builds weekly grids from one immutable snapshot. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	data   *dataset.Dataset
	prefix string
}

// NewResolver binds a resolver to a snapshot and a section-code prefix.
func NewResolver(d *dataset.Dataset, prefix string) *Resolver {
	return &Resolver{data: d, prefix: prefix}
}

// Sections lists the known section codes in dataset order.
func (r *Resolver) Sections() []string { return r.data.Sections() }

// Days lists the seven day names, Sunday first.
func (r *Resolver) Days() []string { return r.data.Days() }

// Lookup normalizes id and matches it case-insensitively against the
// section codes, returning the index and the canonical code.
func (r *Resolver) Lookup(id string) (int, string, error) {
	key := NormalizeSection(id, r.prefix)
	if key == "" {
		return -1, "", fmt.Errorf("%w: empty identifier", ErrSectionNotFound)
	}
	for i, code := range r.data.Class.Sections {
		if strings.EqualFold(strings.TrimSpace(code), key) {
			return i, code, nil
		}
	}
	return -1, "", fmt.Errorf("%w: %q", ErrSectionNotFound, id)
}

// grid accumulates rows keyed by time string in creation order.
type grid struct {
	rows  []*model.WeeklySlot
	index map[string]*model.WeeklySlot
}

func (g *grid) row(time string, kind model.Kind) *model.WeeklySlot {
	if s, ok := g.index[time]; ok {
		return s
	}
	s := &model.WeeklySlot{Time: time, Kind: kind}
	g.index[time] = s
	g.rows = append(g.rows, s)
	return s
}

// Resolve returns the section's weekly grid sorted by start time.
//
// Class assignments are applied first; within that pass the last write
// wins for a repeated (row, day) cell. Dining patterns apply to every
// section and fill only cells that hold no class.
func (r *Resolver) Resolve(id string) ([]model.WeeklySlot, error) {
	section, code, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}

	d := r.data
	g := &grid{index: make(map[string]*model.WeeklySlot)}

	for pi, p := range d.Class.Patterns {
		for _, a := range p.Assignments {
			if a.Section != section {
				continue
			}
			occ, timeStr, err := r.classOccupant(a, code)
			if err != nil {
				return nil, fmt.Errorf("schedule: class pattern %d: %w", pi, err)
			}
			// Rows are created on the first cell write; a pattern without
			// days adds none.
			for _, day := range p.Days {
				if day < 0 || day >= model.DaysPerWeek {
					return nil, fmt.Errorf("schedule: class pattern %d: %w: day %d", pi, dataset.ErrIndexOutOfRange, day)
				}
				o := occ
				g.row(timeStr, model.KindClass).Days[day] = &o
			}
		}
	}

	for pi, p := range d.Dining.Patterns {
		for i, slot := range p.Slots {
			timeStr, err := d.DiningRange(slot)
			if err != nil {
				return nil, fmt.Errorf("schedule: dining pattern %d: %w", pi, err)
			}
			meal, err := d.Meal(i)
			if err != nil {
				// Positional mapping only; fall back to the first meal.
				meal, err = d.Meal(0)
				if err != nil {
					return nil, fmt.Errorf("schedule: dining pattern %d: %w", pi, err)
				}
			}
			for _, day := range p.Days {
				if day < 0 || day >= model.DaysPerWeek {
					return nil, fmt.Errorf("schedule: dining pattern %d: %w: day %d", pi, dataset.ErrIndexOutOfRange, day)
				}
				row := g.row(timeStr, model.KindMeal)
				if cur := row.Days[day]; cur != nil && cur.Kind == model.KindClass {
					continue
				}
				row.Days[day] = &model.Occupant{Kind: model.KindMeal, Meal: meal, TimeRange: timeStr}
			}
		}
	}

	return sortRows(g.rows)
}

func (r *Resolver) classOccupant(a model.ClassAssignment, code string) (model.Occupant, string, error) {
	d := r.data
	timeStr, err := d.Slot(a.Slot)
	if err != nil {
		return model.Occupant{}, "", err
	}
	subject, err := d.Subject(a.Subject)
	if err != nil {
		return model.Occupant{}, "", err
	}
	faculty, err := d.Faculty(a.Faculty)
	if err != nil {
		return model.Occupant{}, "", err
	}
	room, err := d.Room(a.Room)
	if err != nil {
		return model.Occupant{}, "", err
	}
	return model.Occupant{
		Kind:    model.KindClass,
		Subject: subject,
		Faculty: faculty,
		Room:    room,
		Section: code,
	}, timeStr, nil
}

// sortRows copies rows out and stable-sorts them by start minute.
func sortRows(rows []*model.WeeklySlot) ([]model.WeeklySlot, error) {
	type keyed struct {
		slot model.WeeklySlot
		key  int
	}
	ks := make([]keyed, 0, len(rows))
	for _, s := range rows {
		k, err := timeparse.ToMinutesOfDay(s.Time)
		if err != nil {
			return nil, fmt.Errorf("schedule: %w", err)
		}
		ks = append(ks, keyed{slot: *s, key: k})
	}
	slices.SortStableFunc(ks, func(a, b keyed) int { return a.key - b.key })

	out := make([]model.WeeklySlot, len(ks))
	for i, k := range ks {
		out[i] = k.slot
	}
	return out, nil
}
