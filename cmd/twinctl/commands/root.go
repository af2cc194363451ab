package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/twinsgen/twin-problem-service/internal/config"
	"github.com/twinsgen/twin-problem-service/internal/logger"
	"github.com/twinsgen/twin-problem-service/internal/models"
	"github.com/twinsgen/twin-problem-service/internal/store"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "twinctl",
	Short: "Generate twin exam problems from a photo and manage the problem bank",
	Long: `twinctl reads a photographed exam problem, classifies it and generates
multiple-choice variants that keep its structure. Generated problems can be
saved to the problem bank and printed as an exam sheet.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*models.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// cliLogger writes to stderr so stdout stays clean for problem output
func cliLogger(cfg *models.Config) zerolog.Logger {
	l := logger.New(cfg.Env, os.Stderr)
	if !verbose {
		l = l.Level(zerolog.WarnLevel)
	}
	return l
}

func openStore(ctx context.Context, cfg *models.Config) (*store.ProblemStore, error) {
	problems, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open problem bank (%s): %w", cfg.Store.Backend, err)
	}
	return problems, nil
}
