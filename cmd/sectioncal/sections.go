package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the section codes in the loaded timetable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd.Context(), conf)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, s := range store.Current().Sections() {
			fmt.Fprintln(out, s)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sectionsCmd)
}
