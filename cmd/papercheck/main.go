// Command papercheck runs paper checks and corpus maintenance from the shell.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/paper-checker/internal/bootstrap"
	"github.com/kirillkom/paper-checker/internal/config"
	"github.com/kirillkom/paper-checker/internal/observability/logging"
)

var rootCmd = &cobra.Command{
	Use:   "papercheck",
	Short: "Check the claims of biomedical abstracts against the literature",
	Long: `papercheck extracts the claims of an abstract, looks for counter-evidence in the
indexed literature corpus and reports a verdict per claim.

Connection settings come from the same environment variables as the API and
worker (POSTGRES_DSN, OLLAMA_URL, QDRANT_URL, ...). Pipeline thresholds can be
overridden with a YAML file named by --pipeline or PIPELINE_CONFIG_PATH.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "papercheck", level))
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("pipeline", "", "YAML file overriding pipeline thresholds")
}

// withApp loads configuration, builds the application graph and hands it to fn.
func withApp(cmd *cobra.Command, opts bootstrap.Options, fn func(context.Context, *bootstrap.App) error) error {
	if path, _ := cmd.Flags().GetString("pipeline"); path != "" {
		if err := os.Setenv("PIPELINE_CONFIG_PATH", path); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, cfg, opts)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()
	return fn(ctx, app)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
