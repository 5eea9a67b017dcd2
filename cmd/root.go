package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/andresmejia3/sightline/internal/config"
	"github.com/andresmejia3/sightline/internal/store"
	"github.com/andresmejia3/sightline/internal/utils"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Cfg is the loaded configuration shared by subcommands
	Cfg *config.Config
	// DB is the optional rep history store, opened on demand by openStore
	DB *store.Store

	cfgPath  string
	logLevel string
	dbURL    string
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "sightline",
	Short:         "Live camera annotation server (emotion, sign alphabet, exercise reps, objects)",
	Version:       Version, // This enables the --version flag
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(logLevel); err != nil {
			return err
		}
		var err error
		Cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			DB.Close(context.Background())
			DB = nil
		}
	},
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return nil
}

// openStore connects to the history database. With required=false a missing connection string
// returns (nil, nil) and history is simply not recorded.
func openStore(ctx context.Context, required bool) (*store.Store, error) {
	if DB != nil {
		return DB, nil
	}
	explicit := dbURL
	if explicit == "" && Cfg != nil {
		explicit = Cfg.Database
	}
	url := config.DatabaseURL(explicit)
	if url == "" {
		if required {
			return nil, fmt.Errorf("no database configured (use --db, SIGHTLINE_DB or POSTGRES_HOST)")
		}
		return nil, nil
	}
	s, err := store.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = s
	return DB, nil
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		utils.Die("command failed", err, nil)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML configuration file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string for rep history (default: $SIGHTLINE_DB or $POSTGRES_*)")
}
