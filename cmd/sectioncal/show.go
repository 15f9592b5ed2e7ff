package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sectioncal/internal/model"
	"sectioncal/internal/schedule"
	"sectioncal/internal/session"
	"sectioncal/internal/sheet"
)

var errNoSection = errors.New("no section given and none remembered; pass a section such as S01 or 1")

var showCmd = &cobra.Command{
	Use:   "show [section]",
	Short: "Print a section's weekly grid",
	Long:  `Prints the weekly grid for a section. Without an argument the last shown or exported section is used.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, res, err := openSession(cmd.Context(), args)
		if err != nil {
			return err
		}
		printGrid(cmd.OutOrStdout(), sess.Section(), res.Days(), sess.Grid())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

// openSession loads the datasets and moves a session to the schedule view,
// either by submitting args[0] or by restoring the remembered section. A
// successful submit is remembered in the state file.
func openSession(ctx context.Context, args []string) (*session.Session, *schedule.Resolver, error) {
	store, err := loadStore(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	res := schedule.NewResolver(store.Current(), conf.SectionPrefix)
	sess := session.New(res, session.NewFileCache(conf.StateFile))

	if len(args) == 1 {
		if err := sess.Submit(args[0]); err != nil {
			return nil, nil, err
		}
		return sess, res, nil
	}

	if err := sess.Restore(); err != nil {
		return nil, nil, err
	}
	if sess.State() != session.StateSchedule {
		return nil, nil, errNoSection
	}
	return sess, res, nil
}

// printGrid writes the grid as an aligned text table, one line per row and
// one column per day. Multi-line cells are joined with " / ".
func printGrid(w io.Writer, section string, days []string, slots []model.WeeklySlot) {
	fmt.Fprintf(w, "Section %s\n\n", section)
	if len(slots) == 0 {
		fmt.Fprintln(w, "No classes or meals scheduled.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Time\t%s\n", strings.Join(days, "\t"))
	for _, row := range slots {
		cells := make([]string, len(row.Days))
		for i, o := range row.Days {
			cells[i] = strings.ReplaceAll(sheet.CellText(o), "\n", " / ")
			if cells[i] == "" {
				cells[i] = "-"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\n", row.Time, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}
