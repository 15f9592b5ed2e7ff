package dataset

import (
	"errors"
	"fmt"
	"strings"

	"sectioncal/internal/model"
	"sectioncal/internal/timeparse"
)

// Validate checks every integrity invariant of the snapshot and returns all
// defects joined, or nil.
func Validate(d *Dataset) error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(d.Class.Days) != model.DaysPerWeek {
		add(fmt.Errorf("class days: want %d entries, got %d", model.DaysPerWeek, len(d.Class.Days)))
	}
	if len(d.Dining.Days) != 0 && len(d.Dining.Days) != model.DaysPerWeek {
		add(fmt.Errorf("dining days: want %d entries, got %d", model.DaysPerWeek, len(d.Dining.Days)))
	}

	for i, s := range d.Class.Slots {
		add(checkRange(fmt.Sprintf("slots[%d]", i), s))
	}
	for i, s := range d.Dining.TimeRanges {
		add(checkRange(fmt.Sprintf("timeRanges[%d]", i), s))
	}

	seen := make(map[string]int, len(d.Class.Sections))
	for i, s := range d.Class.Sections {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			add(fmt.Errorf("sections[%d]: empty section code", i))
			continue
		}
		if j, dup := seen[key]; dup {
			add(fmt.Errorf("sections[%d]: %q duplicates sections[%d]", i, s, j))
			continue
		}
		seen[key] = i
	}

	for pi, p := range d.Class.Patterns {
		add(checkDays(fmt.Sprintf("class patterns[%d]", pi), p.Days))
		for ai, a := range p.Assignments {
			where := fmt.Sprintf("class patterns[%d].assignments[%d]", pi, ai)
			for _, err := range []error{
				second(d.Section(a.Section)),
				second(d.Subject(a.Subject)),
				second(d.Faculty(a.Faculty)),
				second(d.Room(a.Room)),
				second(d.Slot(a.Slot)),
			} {
				if err != nil {
					add(fmt.Errorf("%s: %w", where, err))
				}
			}
		}
	}

	if len(d.Dining.Patterns) > 0 && len(d.Dining.Meals) == 0 {
		add(errors.New("dining: patterns present but meals is empty"))
	}
	for pi, p := range d.Dining.Patterns {
		add(checkDays(fmt.Sprintf("dining patterns[%d]", pi), p.Days))
		for si, s := range p.Slots {
			if _, err := d.DiningRange(s); err != nil {
				add(fmt.Errorf("dining patterns[%d].slots[%d]: %w", pi, si, err))
			}
		}
	}

	return errors.Join(errs...)
}

// checkRange rejects ranges that do not parse or whose end is not after
// their start. Ranges never cross midnight.
func checkRange(where, s string) error {
	r, err := timeparse.ParseRange(s)
	if err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	if r.End.MinutesOfDay() <= r.Start.MinutesOfDay() {
		return fmt.Errorf("%s: %w: %q ends before it starts", where, timeparse.ErrMalformedTime, s)
	}
	return nil
}

func checkDays(where string, days []int) error {
	if len(days) == 0 {
		return fmt.Errorf("%s.days: no days listed", where)
	}
	for i, day := range days {
		if day < 0 || day >= model.DaysPerWeek {
			return fmt.Errorf("%s.days[%d]: %w: day %d", where, i, ErrIndexOutOfRange, day)
		}
	}
	return nil
}

func second(_ string, err error) error { return err }
