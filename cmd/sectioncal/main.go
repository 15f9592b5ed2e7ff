package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sectioncal/internal/config"
	"sectioncal/internal/dataset"
	appLog "sectioncal/internal/log"
)

const version = "0.1.0"

// rootFlags holds persistent flag values shared by every command.
type rootFlags struct {
	configPath string
	listen     string
}

var (
	flags rootFlags

	// conf is loaded once in the root PersistentPreRunE.
	conf *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "sectioncal",
	Short:         "Weekly section timetable viewer and calendar exporter",
	Long:          `Resolves a section's weekly class and dining grid from timetable datasets and exports it as a recurring-event iCalendar document, a spreadsheet or a PNG snapshot.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flags.configPath)
		if err != nil {
			appLog.Error("failed to load config", err, "config_path", flags.configPath)
			return err
		}
		// --listen overrides config file listen if provided.
		if flags.listen != "" {
			cfg.Listen = flags.listen
		}
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
		appLog.Debug("effective config",
			"listen", cfg.Listen,
			"timezone", cfg.Timezone,
			"class_timetable", cfg.ClassTimetable,
			"dining_timetable", cfg.DiningTimetable,
			"semester_end", cfg.SemesterEnd,
			"refresh", cfg.RefreshCron,
		)
		conf = cfg
		return nil
	},
}

func init() {
	// .env is applied before flag defaults are read from the environment.
	if err := config.LoadEnv(); err != nil {
		appLog.Error("failed to load .env", err)
	}

	defaultConfig := "config.yaml"
	if v := os.Getenv(config.EnvConfigPath); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", defaultConfig, "Path to config file (env "+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&flags.listen, "listen", os.Getenv(config.EnvListen), "HTTP listen address, overrides config (env "+config.EnvListen+")")
}

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		appLog.Error("sectioncal failed", err)
		stop()
		os.Exit(1)
	}
}

// loadStore loads both datasets once and returns a reloadable store.
func loadStore(ctx context.Context, cfg *config.Config) (*dataset.Store, error) {
	store := dataset.NewStore(dataset.NewLoader(cfg.CacheDir), dataset.Sources{
		Class:  cfg.ClassTimetable,
		Dining: cfg.DiningTimetable,
	})
	if err := store.Reload(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
