package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counsel0/counsel/internal/config"
	"github.com/counsel0/counsel/internal/log"
)

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	cfg := config.OtelConfig{Enabled: false}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg, log.NewNop())

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
}

func TestSetup_DefaultEndpoint(t *testing.T) {
	t.Parallel()

	cfg := config.OtelConfig{
		Enabled:     true,
		Endpoint:    "", // Empty should use default
		ServiceName: "test-service",
		Environment: "test",
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg, log.NewNop())

	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// No spans were recorded, so shutdown flushes nothing and must not
	// fail even without a collector listening.
	assert.NoError(t, shutdown(ctx))
}

func TestSetup_CollectorUnavailable_GracefulDegradation(t *testing.T) {
	t.Parallel()

	cfg := config.OtelConfig{
		Enabled:     true,
		Endpoint:    "localhost:1", // Nothing listens here
		ServiceName: "graceful-test",
		Environment: "test",
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg, log.NewNop())

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
}
