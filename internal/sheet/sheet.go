// Package sheet renders a weekly grid as an .xlsx workbook.
package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"sectioncal/internal/model"
)

// SheetName is the single worksheet in an exported workbook.
const SheetName = "Schedule"

const (
	headerFill = "#DCE6F1"
	mealFill   = "#FCEBD2"
)

// CellText is the display text of one grid cell. Empty cells render "".
func CellText(o *model.Occupant) string {
	if o == nil {
		return ""
	}
	if o.Kind == model.KindMeal {
		return o.Meal
	}
	return fmt.Sprintf("%s\n%s\nRoom %s", o.Subject, o.Faculty, o.Room)
}

// Write renders the grid for section into w. days are the seven column
// headings, Sunday first.
func Write(w io.Writer, section string, days []string, slots []model.WeeklySlot) error {
	if len(days) != model.DaysPerWeek {
		return fmt.Errorf("sheet: want %d day names, got %d", model.DaysPerWeek, len(days))
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   section + " weekly schedule",
		Subject: section,
		Creator: "sectioncal",
	}); err != nil {
		return fmt.Errorf("sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("sheet: %w", err)
	}

	header := make([]any, 0, len(days)+1)
	header = append(header, "Time")
	for _, d := range days {
		header = append(header, d)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("sheet: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, styles.header); err != nil {
		return fmt.Errorf("sheet: %w", err)
	}

	for i, row := range slots {
		r := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetCellValue(SheetName, cell, row.Time); err != nil {
			return fmt.Errorf("sheet: %w", err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, styles.time); err != nil {
			return fmt.Errorf("sheet: %w", err)
		}
		for day, o := range row.Days {
			cell, _ := excelize.CoordinatesToCellName(day+2, r)
			if err := f.SetCellValue(SheetName, cell, CellText(o)); err != nil {
				return fmt.Errorf("sheet: %w", err)
			}
			style := styles.cell
			if o != nil && o.Kind == model.KindMeal {
				style = styles.meal
			}
			if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
				return fmt.Errorf("sheet: %w", err)
			}
		}
		if err := f.SetRowHeight(SheetName, r, 48); err != nil {
			return fmt.Errorf("sheet: %w", err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 18); err != nil {
		return fmt.Errorf("sheet: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "H", 22); err != nil {
		return fmt.Errorf("sheet: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("sheet: write: %w", err)
	}
	return nil
}

// Filename is the suggested download name for a section's workbook.
func Filename(section string) string {
	name := ""
	for _, r := range section {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			name += string(r)
		}
	}
	if name == "" {
		name = "section"
	}
	return name + "-schedule.xlsx"
}

type styleSet struct {
	header, time, cell, meal int
}

func newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error
	border := []excelize.Border{
		{Type: "left", Color: "#B7B7B7", Style: 1},
		{Type: "right", Color: "#B7B7B7", Style: 1},
		{Type: "top", Color: "#B7B7B7", Style: 1},
		{Type: "bottom", Color: "#B7B7B7", Style: 1},
	}
	wrap := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: wrap,
		Border:    border,
	}); err != nil {
		return s, err
	}
	if s.time, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: wrap,
		Border:    border,
	}); err != nil {
		return s, err
	}
	if s.cell, err = f.NewStyle(&excelize.Style{
		Alignment: wrap,
		Border:    border,
	}); err != nil {
		return s, err
	}
	s.meal, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{mealFill}},
		Alignment: wrap,
		Border:    border,
	})
	return s, err
}
