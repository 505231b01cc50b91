package services

import (
	"go.uber.org/zap"

	"github.com/boardsync/boardsync-client/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewZapLogger(zap.NewNop())
}
