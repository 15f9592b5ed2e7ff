package model

import "time"

// DaysPerWeek is the fixed width of a weekly grid; index 0 is Sunday.
const DaysPerWeek = 7

// ClassAssignment binds one section to a subject, faculty, room and slot.
// All fields are indices into the owning ClassTimetable's tables.
type ClassAssignment struct {
	Section int `yaml:"section" json:"section"`
	Subject int `yaml:"subject" json:"subject"`
	Faculty int `yaml:"faculty" json:"faculty"`
	Room    int `yaml:"room" json:"room"`
	Slot    int `yaml:"slot" json:"slot"`
}

// ClassPattern applies its assignments on every listed day.
type ClassPattern struct {
	Days        []int             `yaml:"days" json:"days"`
	Assignments []ClassAssignment `yaml:"assignments" json:"assignments"`
}

// ClassTimetable is the index-addressed class dataset.
type ClassTimetable struct {
	Days      []string       `yaml:"days" json:"days"`
	Slots     []string       `yaml:"slots" json:"slots"`
	Subjects  []string       `yaml:"subjects" json:"subjects"`
	Faculties []string       `yaml:"faculties" json:"faculties"`
	Rooms     []string       `yaml:"rooms" json:"rooms"`
	Sections  []string       `yaml:"sections" json:"sections"`
	Patterns  []ClassPattern `yaml:"patterns" json:"patterns"`
}

// DiningPattern lists time-range indices served on every listed day. The
// meal name for the i-th slot is DiningTimetable.Meals[i].
type DiningPattern struct {
	Days  []int `yaml:"days" json:"days"`
	Slots []int `yaml:"slots" json:"slots"`
}

// DiningTimetable is the section-independent dining dataset.
type DiningTimetable struct {
	Days       []string        `yaml:"days" json:"days"`
	TimeRanges []string        `yaml:"timeRanges" json:"timeRanges"`
	Meals      []string        `yaml:"meals" json:"meals"`
	Patterns   []DiningPattern `yaml:"patterns" json:"patterns"`
}

// Kind tells class rows and cells apart from meal ones.
type Kind string

const (
	KindClass Kind = "class"
	KindMeal  Kind = "meal"
)

// Occupant is what fills one (row, day) cell of a weekly grid. Class fields
// are set for KindClass, Meal/TimeRange for KindMeal.
type Occupant struct {
	Kind Kind `json:"kind"`

	Subject string `json:"subject,omitempty"`
	Faculty string `json:"faculty,omitempty"`
	Room    string `json:"room,omitempty"`
	Section string `json:"section,omitempty"`

	Meal      string `json:"meal,omitempty"`
	TimeRange string `json:"time_range,omitempty"`
}

// WeeklySlot is one row of a resolved weekly grid, keyed by its time range.
type WeeklySlot struct {
	Time string                 `json:"time"`
	Kind Kind                   `json:"kind"`
	Days [DaysPerWeek]*Occupant `json:"days"`
}

// Occupied counts the non-empty cells of the row.
func (s WeeklySlot) Occupied() int {
	n := 0
	for _, o := range s.Days {
		if o != nil {
			n++
		}
	}
	return n
}

// CountOccupied counts the non-empty cells of a whole grid.
func CountOccupied(slots []WeeklySlot) int {
	n := 0
	for _, s := range slots {
		n += s.Occupied()
	}
	return n
}

// CalendarEvent is the serializer's intermediate form of one occupied cell.
type CalendarEvent struct {
	UID            string
	Title          string
	Description    string
	Location       string
	Start          time.Time
	End            time.Time
	RecurrenceRule string
	TimezoneLabel  string
	Created        time.Time
}

// Occurrence is a single concrete instance of an exported recurring event.
type Occurrence struct {
	UID string

	// InstanceKey uniquely identifies one occurrence of a recurring event,
	// derived from its local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	// Start / End are in the display timezone.
	Start time.Time
	End   time.Time
}
