package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sectioncal/internal/config"
	"sectioncal/internal/model"
	"sectioncal/internal/schedule"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ClassTimetable = filepath.Join("..", "..", "data", "class_timetable.yaml")
	cfg.DiningTimetable = filepath.Join("..", "..", "data", "dining_timetable.yaml")
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.StateFile = filepath.Join(dir, "state.yaml")
	return cfg
}

func TestOpenSessionRemembersSection(t *testing.T) {
	conf = testConfig(t)
	ctx := context.Background()

	if _, _, err := openSession(ctx, nil); !errors.Is(err, errNoSection) {
		t.Fatalf("openSession() with empty state err = %v, want errNoSection", err)
	}

	sess, _, err := openSession(ctx, []string{"2"})
	if err != nil {
		t.Fatalf("openSession(2) error: %v", err)
	}
	if sess.Section() != "S02" {
		t.Errorf("section = %q, want S02", sess.Section())
	}

	restored, _, err := openSession(ctx, nil)
	if err != nil {
		t.Fatalf("openSession() restore error: %v", err)
	}
	if restored.Section() != "S02" {
		t.Errorf("restored section = %q, want S02", restored.Section())
	}
}

func TestOpenSessionUnknownSection(t *testing.T) {
	conf = testConfig(t)
	_, _, err := openSession(context.Background(), []string{"S99"})
	if !errors.Is(err, schedule.ErrSectionNotFound) {
		t.Fatalf("err = %v, want ErrSectionNotFound", err)
	}
	if _, statErr := os.Stat(conf.StateFile); !os.IsNotExist(statErr) {
		t.Errorf("state file written for an unknown section")
	}
}

func TestPrintGrid(t *testing.T) {
	row := model.WeeklySlot{Time: "9.00AM-10.20AM", Kind: model.KindClass}
	row.Days[1] = &model.Occupant{Kind: model.KindClass, Subject: "CSE110", Faculty: "Dr. X", Room: "301"}
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

	var buf bytes.Buffer
	printGrid(&buf, "S01", days, []model.WeeklySlot{row})
	out := buf.String()
	for _, want := range []string{"Section S01", "CSE110 / Dr. X / Room 301", "9.00AM-10.20AM"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printGrid(&buf, "S02", days, nil)
	if !strings.Contains(buf.String(), "No classes or meals scheduled.") {
		t.Errorf("empty grid output = %q", buf.String())
	}
}
