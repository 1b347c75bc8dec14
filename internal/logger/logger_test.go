package logger_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/project-hub/internal/logger"
)

func TestSetup_Level(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger.Setup("user-service", "debug", true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	logger.Setup("user-service", "warn", false)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	logger.Setup("user-service", "nonsense", true)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
