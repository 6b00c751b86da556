package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitLogger(t *testing.T) {
	previous := logger
	t.Cleanup(func() { logger = previous })

	require.NoError(t, InitLogger("production"))
	assert.NotNil(t, GetLogger())
	require.NoError(t, InitLogger("development"))
	assert.NotNil(t, GetLogger())
}

func TestRequestLogger(t *testing.T) {
	previous := logger
	t.Cleanup(func() { logger = previous })

	core, logs := observer.New(zap.InfoLevel)
	logger = zap.New(core)

	RequestLogger("rid-1").Info("tagged")
	RequestLogger("").Info("untagged")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "rid-1", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}
