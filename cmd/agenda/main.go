package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"agenda/internal/config"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagConfig     = "config"
	flagLogLevel   = "log-level"
	configKeyPath  = "config_path"
	configKeyLevel = "log_level"
)

// runtime is what every subcommand receives after PersistentPreRunE.
type runtime struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agenda: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "agenda",
		Short:         "Room booking backend with Google Calendar sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadRuntime(root, rt)
	}

	root.PersistentFlags().String(flagConfig, "", "path to config.yaml (default configs/config.yaml)")
	root.PersistentFlags().String(flagLogLevel, "", "override logging.level")

	root.AddCommand(newServeCommand(rt), newSeedCommand(rt), newBackupCommand(rt))
	return root
}

func loadRuntime(root *cobra.Command, rt *runtime) error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindEnv(configKeyPath, "AGENDA_CONFIG"); err != nil {
		return err
	}
	if err := viper.BindEnv(configKeyLevel, "AGENDA_LOG_LEVEL"); err != nil {
		return err
	}
	if err := viper.BindPFlag(configKeyPath, root.PersistentFlags().Lookup(flagConfig)); err != nil {
		return err
	}
	if err := viper.BindPFlag(configKeyLevel, root.PersistentFlags().Lookup(flagLogLevel)); err != nil {
		return err
	}

	cfg, err := config.Load(viper.GetString(configKeyPath))
	if err != nil {
		return err
	}
	if level := viper.GetString(configKeyLevel); level != "" {
		cfg.Logging.Level = level
	}

	logger, err := newLogger(cfg.Logging.Level, cfg.Logging.Pretty)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	rt.logger = logger
	return nil
}

func newLogger(level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("logging.level %q: %w", level, err)
	}
	var logger zerolog.Logger
	if pretty {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		logger = zerolog.New(output)
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(lvl).With().Timestamp().Str("service", "agenda").Logger(), nil
}
