package main

import (
	"github.com/spf13/cobra"

	appLog "sectioncal/internal/log"
	"sectioncal/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the section picker, JSON API and downloads over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := loadStore(ctx, conf)
		if err != nil {
			return err
		}
		if err := store.StartRefresh(ctx, conf.RefreshCron); err != nil {
			return err
		}

		err = web.StartServer(ctx, conf, store)
		appLog.Info("sectioncal exiting")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
