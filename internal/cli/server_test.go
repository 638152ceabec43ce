package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriteTimeoutCoversEvaluationBudget(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	assert.Equal(t, 30*time.Second, writeTimeoutFor(log, 30*time.Second, 20*time.Second))
	assert.Equal(t, 0, logs.Len())

	assert.Equal(t, 65*time.Second, writeTimeoutFor(log, 30*time.Second, time.Minute))
	assert.Equal(t, 1, logs.FilterMessage("server write timeout shorter than evaluation budget, raising it").Len())
}
