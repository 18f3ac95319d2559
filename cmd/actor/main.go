package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cartridge/replay/internal/actor"
	"github.com/cartridge/replay/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "actor",
	Short: "Cartridge synthetic replay producer",
	Long: `Actor that generates step records matching the replay service's
data spec and appends them with AddBatch at a fixed rate.

Use it to fill a replay buffer for load tests and demos.`,
	SilenceUsage: true,
	RunE:         runActor,
}

func init() {
	config.DefaultActor().RegisterFlags(rootCmd.Flags())
}

func runActor(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadActor(viper.New(), cmd.Flags())
	if err != nil {
		return err
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("service", "actor").Logger()

	logger.Info().
		Str("actor_id", cfg.ActorID).
		Str("replay_addr", cfg.ReplayAddr).
		Float64("batches_per_second", cfg.BatchesPerSecond).
		Msg("Starting actor")

	actorInstance, err := actor.New(cfg, logger)
	if err != nil {
		return err
	}
	defer actorInstance.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := actorInstance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("actor failed: %w", err)
	}

	logger.Info().Int("batches", actorInstance.Sent()).Msg("Actor stopped gracefully")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
