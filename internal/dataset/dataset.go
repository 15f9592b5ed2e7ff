// Package dataset loads the class and dining timetables and exposes them as
// read-only lookup tables with bounds-checked accessors.
package dataset

import (
	"errors"
	"fmt"

	"sectioncal/internal/model"
)

// ErrIndexOutOfRange reports a dangling index in the timetable data.
var ErrIndexOutOfRange = errors.New("dataset: index out of range")

// Dataset is one immutable snapshot of both timetables. It must not be
// mutated after Validate succeeds; callers share it across goroutines.
type Dataset struct {
	Class  model.ClassTimetable
	Dining model.DiningTimetable
}

func lookup(table string, values []string, i int) (string, error) {
	if i < 0 || i >= len(values) {
		return "", fmt.Errorf("%w: %s[%d] (len %d)", ErrIndexOutOfRange, table, i, len(values))
	}
	return values[i], nil
}

func (d *Dataset) Day(i int) (string, error) { return lookup("days", d.Class.Days, i) }

func (d *Dataset) Slot(i int) (string, error) { return lookup("slots", d.Class.Slots, i) }

func (d *Dataset) Subject(i int) (string, error) { return lookup("subjects", d.Class.Subjects, i) }

func (d *Dataset) Faculty(i int) (string, error) { return lookup("faculties", d.Class.Faculties, i) }

func (d *Dataset) Room(i int) (string, error) { return lookup("rooms", d.Class.Rooms, i) }

func (d *Dataset) Section(i int) (string, error) { return lookup("sections", d.Class.Sections, i) }

func (d *Dataset) DiningRange(i int) (string, error) {
	return lookup("timeRanges", d.Dining.TimeRanges, i)
}

func (d *Dataset) Meal(i int) (string, error) { return lookup("meals", d.Dining.Meals, i) }

// Days returns the seven day names, Sunday first.
func (d *Dataset) Days() []string {
	return append([]string(nil), d.Class.Days...)
}

// Sections returns the section codes in dataset order.
func (d *Dataset) Sections() []string {
	return append([]string(nil), d.Class.Sections...)
}
