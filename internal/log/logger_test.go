package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tazhibayda/workspace-service/internal/log"
)

func TestInit_SetsGlobal(t *testing.T) {
	l, err := log.Init(false)
	require.NoError(t, err)
	assert.Same(t, l, log.L())
}

func TestWithDD_NoSpanKeepsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	log.WithDD(context.Background(), base, zap.String("op", "register")).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "register", fields["op"])
	assert.NotContains(t, fields, "dd.trace_id")
}
