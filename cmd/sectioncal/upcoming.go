package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sectioncal/internal/ics"
	"sectioncal/internal/schedule"
)

var upcomingCmd = &cobra.Command{
	Use:   "upcoming <section>",
	Short: "List the next concrete class and meal occurrences of a section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		store, err := loadStore(cmd.Context(), conf)
		if err != nil {
			return err
		}
		slots, err := schedule.NewResolver(store.Current(), conf.SectionPrefix).Resolve(args[0])
		if err != nil {
			return err
		}

		ser, err := ics.FromConfig(conf, nil)
		if err != nil {
			return err
		}
		doc, err := ser.Serialize(slots)
		if err != nil {
			return err
		}

		loc := conf.Location()
		result, err := ics.Upcoming(doc, loc, time.Now().In(loc), days)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, occ := range result.Occurrences {
			fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\n",
				occ.Start.Format("Mon 2006-01-02"),
				occ.Start.Format("15:04"),
				occ.End.Format("15:04"),
				occ.Summary,
				occ.Location,
			)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(upcomingCmd)

	upcomingCmd.Flags().IntP("days", "d", 7, "Number of days to look ahead")
}
