package dataset

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sources names where the two timetables come from. Each entry is a file
// path or an http(s) URL.
type Sources struct {
	Class  string
	Dining string
}

// Loader reads and validates dataset snapshots.
type Loader struct {
	fetcher *Fetcher
}

// NewLoader returns a Loader whose remote sources are cached under cacheDir.
func NewLoader(cacheDir string) *Loader {
	return &Loader{fetcher: NewFetcher(cacheDir)}
}

// Load reads both timetables and validates the combined snapshot.
func (l *Loader) Load(ctx context.Context, src Sources) (*Dataset, error) {
	var d Dataset

	classData, err := l.read(ctx, src.Class)
	if err != nil {
		return nil, fmt.Errorf("dataset: class timetable: %w", err)
	}
	if err := Decode(classData, &d.Class); err != nil {
		return nil, fmt.Errorf("dataset: class timetable %s: %w", src.Class, err)
	}

	diningData, err := l.read(ctx, src.Dining)
	if err != nil {
		return nil, fmt.Errorf("dataset: dining timetable: %w", err)
	}
	if err := Decode(diningData, &d.Dining); err != nil {
		return nil, fmt.Errorf("dataset: dining timetable %s: %w", src.Dining, err)
	}

	if err := Validate(&d); err != nil {
		return nil, fmt.Errorf("dataset: invalid snapshot: %w", err)
	}
	return &d, nil
}

func (l *Loader) read(ctx context.Context, src string) ([]byte, error) {
	if isRemote(src) {
		res, err := l.fetcher.Fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		return res.Body, nil
	}
	return os.ReadFile(src)
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Decode parses a YAML or JSON timetable document into v.
func Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}
