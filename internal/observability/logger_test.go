package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/geocoder89/todolist/internal/actorctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_AddsActorID(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	ctx := actorctx.WithUserID(context.Background(), "u-1")
	log.InfoContext(ctx, "task created", "task_id", 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, "task created", rec["msg"])
	assert.Equal(t, "u-1", rec["actor_id"])
	assert.NotContains(t, rec, "trace_id")
}

func TestLogger_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer

	NewLoggerTo(&buf, "prod").Debug("hidden")
	assert.Empty(t, buf.String())

	NewLoggerTo(&buf, "dev").Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitTracer_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "dev", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
