//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/relayq/relayq/internal/core/mq"
	"github.com/relayq/relayq/internal/core/observability/log"
)

func ProvideLogger() *log.Logger {
	wire.Build(log.Provide)
	return log.New(log.LevelInfo)
}

func ProvideQueue() mq.MessageQueue {
	wire.Build(mq.DefaultConfig, mq.New)
	return nil
}
