package main

import (
	"context"
	"log"

	"go.uber.org/zap/zapcore"

	"github.com/boardsync/boardsync-client/internal/client/cli"
	"github.com/boardsync/boardsync-client/internal/client/config"
	"github.com/boardsync/boardsync-client/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.NewProduction(level)
	defer logger.Sync()

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
