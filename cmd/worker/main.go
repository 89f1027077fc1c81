package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/vivalab/interview-agent/internal/setup"
	setuplogger "github.com/vivalab/interview-agent/internal/setup/logger"
	"github.com/vivalab/interview-agent/internal/stream"
	redisstream "github.com/vivalab/interview-agent/internal/stream/redis"
)

func main() {
	// Setup logging
	logger := setuplogger.NewConsole(os.Getenv("LOG_LEVEL"))
	log.Logger = logger

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := setup.LoadConfig()
	deps, err := setup.Wire(ctx, cfg, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	consumerName := cfg.ConsumerName
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		consumerName = hostname
	}

	streamCfg := redisstream.NewStreamConfig(
		cfg.RedisAddr,
		cfg.RedisPassword,
		cfg.StreamName,
		cfg.StreamGroup,
		consumerName,
	)

	consumer, err := stream.NewConsumer(ctx, cfg.StreamProvider, streamCfg, deps.Evaluator, deps.Results, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stream consumer")
	}

	if err := consumer.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup consumer")
	}

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Consumer stopped with error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	log.Info().Msg("Interview worker stopped")
}
