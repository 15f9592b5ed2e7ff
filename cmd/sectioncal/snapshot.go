package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"sectioncal/internal/capture"
	"sectioncal/internal/config"
	appLog "sectioncal/internal/log"
	"sectioncal/internal/schedule"
	"sectioncal/internal/web"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <section>",
	Short: "Render a section's weekly grid to PNG with headless Chromium",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out, _ := cmd.Flags().GetString("output")

		store, err := loadStore(ctx, conf)
		if err != nil {
			return err
		}
		_, code, err := schedule.NewResolver(store.Current(), conf.SectionPrefix).Lookup(args[0])
		if err != nil {
			return err
		}
		if out == "" {
			out = code + "-schedule.png"
		}

		// Serve the view on a loopback port for the browser. The private
		// server needs no auth.
		local := *conf
		local.BasicAuth = nil
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return err
		}
		srv := &http.Server{Handler: web.NewServer(&local, store).Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLog.Error("snapshot server failed", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		png, err := capture.GridPNG(ctx, capture.Options{
			URL:     capture.ViewURL("http://"+ln.Addr().String(), code),
			Width:   conf.Capture.Width,
			Height:  conf.Capture.Height,
			Timeout: time.Duration(conf.Capture.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		if err := config.WriteFileAtomic(out, png, 0o644); err != nil {
			return fmt.Errorf("snapshot: write %s: %w", out, err)
		}
		appLog.Info("snapshot written", "section", code, "path", out, "bytes", len(png))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringP("output", "o", "", `PNG path (default "<section>-schedule.png")`)
}
