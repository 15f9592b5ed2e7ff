package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"sectioncal/internal/config"
	"sectioncal/internal/ics"
	appLog "sectioncal/internal/log"
	"sectioncal/internal/sheet"
)

var exportCmd = &cobra.Command{
	Use:   "export [section]",
	Short: "Write a section's weekly grid as an iCalendar document",
	Long: `Exports the section's weekly grid as recurring weekly events ending on the
configured semester end. Without an argument the last shown or exported
section is used. Files are written atomically; "-o -" prints to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		xlsxOut, _ := cmd.Flags().GetString("xlsx")

		sess, res, err := openSession(cmd.Context(), args)
		if err != nil {
			return err
		}
		code := sess.Section()

		ser, err := ics.FromConfig(conf, nil)
		if err != nil {
			return err
		}
		doc, err := ser.Serialize(sess.Grid())
		if err != nil {
			return err
		}

		switch out {
		case "-":
			fmt.Fprint(cmd.OutOrStdout(), doc)
		default:
			if out == "" {
				out = ics.Filename(code)
			}
			if err := config.WriteFileAtomic(out, []byte(doc), 0o600); err != nil {
				return fmt.Errorf("export: write %s: %w", out, err)
			}
			appLog.Info("calendar exported", "section", code, "path", out, "bytes", len(doc))
		}

		if xlsxOut != "" {
			var buf bytes.Buffer
			if err := sheet.Write(&buf, code, res.Days(), sess.Grid()); err != nil {
				return err
			}
			if err := config.WriteFileAtomic(xlsxOut, buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("export: write %s: %w", xlsxOut, err)
			}
			appLog.Info("spreadsheet exported", "section", code, "path", xlsxOut)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", `Calendar file path (default "<section>-schedule.ics", "-" for stdout)`)
	exportCmd.Flags().String("xlsx", "", "Also write the grid as a spreadsheet to this path")
}
