// logging/logger_test.go
package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHelpersUsableBeforeInit(t *testing.T) {
	assert.NotNil(t, Log)

	assert.NotPanics(t, func() {
		Debug("debug message")
		Info("info message", zap.String("key", "value"))
		Warn("warn message")
		Error("error message", zap.Error(nil))
		WithContext(zap.String("requestID", "r-1")).Info("scoped message")
		Sync()
	})
}

func TestInitLoggerReplacesDefault(t *testing.T) {
	before := Log
	InitLogger(t.TempDir())
	assert.NotSame(t, before, Log)
	assert.NotPanics(t, func() { Info("post-init message") })
}
