package ics

import (
	"fmt"
	"time"

	"sectioncal/internal/config"
)

// FromConfig builds a Serializer from application config. now may be nil.
func FromConfig(cfg *config.Config, now func() time.Time) (*Serializer, error) {
	loc := cfg.Location()
	end, err := cfg.SemesterEndDate(loc)
	if err != nil {
		return nil, fmt.Errorf("ics: semester_end: %w", err)
	}
	return NewSerializer(Options{
		ProductID:     cfg.ProductID,
		DiningHall:    cfg.DiningHall,
		SemesterEnd:   end,
		Location:      loc,
		TimezoneLabel: cfg.Timezone,
		UIDDomain:     cfg.UIDDomain,
		Now:           now,
	})
}

// Upcoming reads an exported document back and lists its occurrences from
// `from` through the following days, in loc.
func Upcoming(doc string, loc *time.Location, from time.Time, days int) (ExpandResult, error) {
	if days <= 0 {
		return ExpandResult{}, fmt.Errorf("ics: days must be positive, got %d", days)
	}
	events, err := ParseDocument([]byte(doc))
	if err != nil {
		return ExpandResult{}, err
	}
	return ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      from,
		RangeEnd:        from.AddDate(0, 0, days),
	})
}
