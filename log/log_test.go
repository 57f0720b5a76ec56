package log_test

import (
	"testing"

	"github.com/on-the-ground/fiber_ive_go/fiber"
	"github.com/on-the-ground/fiber_ive_go/log"
	"github.com/on-the-ground/fiber_ive_go/model"
	"github.com/on-the-ground/fiber_ive_go/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEffect_WritesThroughFiberLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rt := fiber.NewRuntime(
		fiber.WithScheduler(scheduler.NewManual()),
		fiber.WithLogger(zap.New(core)),
	)

	prog := fiber.ZipRight(
		log.Effect(log.LogWarn, "low disk", map[string]interface{}{"free": 3}),
		log.Effect(log.LogDebug, "detail", nil),
	)
	exit, _, ok := fiber.RunSync(rt, prog)
	require.True(t, ok)
	assert.True(t, exit.IsDone())

	warns := logs.FilterMessage("low disk").All()
	require.Len(t, warns, 1)
	assert.Equal(t, zapcore.WarnLevel, warns[0].Level)
	assert.EqualValues(t, 3, warns[0].ContextMap()["free"])
	assert.Contains(t, warns[0].ContextMap(), "fiber_id")

	assert.Equal(t, 1, logs.FilterMessage("detail").FilterLevelExact(zapcore.DebugLevel).Len())
}

func TestNewLogger(t *testing.T) {
	logger, err := log.NewLogger(model.LogConfig{Level: "debug", Encoding: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = log.NewLogger(model.LogConfig{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = log.NewLogger(model.LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = log.NewLogger(model.LogConfig{Encoding: "xml"})
	assert.Error(t, err)
}
