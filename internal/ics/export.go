package ics

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"sectioncal/internal/model"
	"sectioncal/internal/timeparse"
)

// Options configures a Serializer.
type Options struct {
	// ProductID is written as PRODID.
	ProductID string

	// DiningHall is the LOCATION of meal events.
	DiningHall string

	// SemesterEnd is the fixed last day of every weekly recurrence. Only its
	// date is used; UNTIL is 23:59:59 of that day in Location.
	SemesterEnd time.Time

	// Location is the export timezone. Nil means time.Local.
	Location *time.Location

	// TimezoneLabel overrides the X-WR-TIMEZONE value. Empty means the
	// Location name, or the TZ environment value for time.Local.
	TimezoneLabel string

	// UIDDomain is the right-hand side of every UID.
	UIDDomain string

	// Now is the export clock; it anchors the exported week. Nil means
	// time.Now.
	Now func() time.Time
}

// Serializer converts weekly grids into recurring-event calendar documents.
// It keeps no state between calls.
type Serializer struct {
	opts Options
}

// NewSerializer validates opts and fills defaults.
func NewSerializer(opts Options) (*Serializer, error) {
	if opts.SemesterEnd.IsZero() {
		return nil, errors.New("ics: semester end date is required")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProductID == "" {
		opts.ProductID = "-//sectioncal//Weekly Section Schedule//EN"
	}
	if opts.UIDDomain == "" {
		opts.UIDDomain = "sectioncal.local"
	}
	return &Serializer{opts: opts}, nil
}

// TimezoneLabel is the zone name recorded as calendar metadata.
func (s *Serializer) TimezoneLabel() string {
	if s.opts.TimezoneLabel != "" {
		return s.opts.TimezoneLabel
	}
	if s.opts.Location == time.Local {
		link, _ := os.Readlink("/etc/localtime")
		return localZoneName(os.Getenv("TZ"), link, s.opts.Now().In(time.Local))
	}
	return s.opts.Location.String()
}

// localZoneName returns an IANA zone id for the local zone. It prefers TZ,
// then the /etc/localtime link target, then an Etc/GMT zone for whole-hour
// offsets. Etc/GMT signs are inverted: UTC+6 is Etc/GMT-6.
func localZoneName(tz, link string, now time.Time) string {
	for _, name := range []string{strings.TrimPrefix(tz, ":"), link} {
		if i := strings.LastIndex(name, "zoneinfo/"); i >= 0 {
			name = name[i+len("zoneinfo/"):]
		}
		if name != "" && !strings.HasPrefix(name, "/") && !strings.HasPrefix(name, ".") {
			return name
		}
	}

	abbr, offset := now.Zone()
	switch {
	case offset == 0:
		return "UTC"
	case offset%3600 == 0:
		return fmt.Sprintf("Etc/GMT%+d", -offset/3600)
	}
	return abbr
}

// RecurrenceRule returns the weekly rule bounded by the semester end.
func (s *Serializer) RecurrenceRule() string {
	end := s.opts.SemesterEnd
	until := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, s.opts.Location)
	opt := rrule.ROption{
		Freq:  rrule.WEEKLY,
		Until: until,
	}
	return opt.RRuleString()
}

// Events builds one CalendarEvent per occupied cell, rows in order and days
// Sunday to Saturday within a row.
func (s *Serializer) Events(slots []model.WeeklySlot) ([]model.CalendarEvent, error) {
	now := s.opts.Now().In(s.opts.Location)
	rule := s.RecurrenceRule()
	label := s.TimezoneLabel()

	events := make([]model.CalendarEvent, 0, model.CountOccupied(slots))
	for _, row := range slots {
		for day, occ := range row.Days {
			if occ == nil {
				continue
			}
			start, end, err := timeparse.ToInstants(row.Time, day, now)
			if err != nil {
				return nil, fmt.Errorf("ics: %w", err)
			}

			ev := model.CalendarEvent{
				UID:            s.uid(day, row.Time, now),
				Start:          start,
				End:            end,
				RecurrenceRule: rule,
				TimezoneLabel:  label,
				Created:        now,
			}
			switch occ.Kind {
			case model.KindMeal:
				ev.Title = occ.Meal
				ev.Description = "Dining time: " + occ.TimeRange
				ev.Location = s.opts.DiningHall
			default:
				ev.Title = occ.Subject + " - Class"
				ev.Description = "Instructor: " + occ.Faculty + "\nSection: " + occ.Section
				ev.Location = "Room " + occ.Room
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

// uid is unique per (day, time, export run).
func (s *Serializer) uid(day int, timeStr string, now time.Time) string {
	return fmt.Sprintf("%d-%s-%d@%s", day, sanitize(timeStr), now.UnixNano(), s.opts.UIDDomain)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Serialize renders the grid as an iCalendar document with CRLF line
// endings. Instants are written in UTC; the zone is kept as X-WR-TIMEZONE.
func (s *Serializer) Serialize(slots []model.WeeklySlot) (string, error) {
	events, err := s.Events(slots)
	if err != nil {
		return "", err
	}
	return s.Document(events), nil
}

// Document assembles already built events into a calendar document.
func (s *Serializer) Document(events []model.CalendarEvent) string {
	cal := ical.NewCalendar()
	cal.SetProductId(s.opts.ProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRTimezone(s.TimezoneLabel())

	for _, ev := range events {
		ve := cal.AddEvent(ev.UID)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.AddRrule(ev.RecurrenceRule)
		ve.SetSummary(ev.Title)
		ve.SetDescription(ev.Description)
		ve.SetLocation(ev.Location)
		ve.SetCreatedTime(ev.Created)
		ve.SetDtStampTime(ev.Created)
		ve.SetStatus(ical.ObjectStatusConfirmed)
		ve.SetTimeTransparency(ical.TransparencyOpaque)
	}

	return cal.Serialize(ical.WithNewLineWindows)
}

// Filename is the suggested download name for a section's document.
func Filename(section string) string {
	name := sanitize(section)
	if name == "" {
		name = "section"
	}
	return name + "-schedule.ics"
}
