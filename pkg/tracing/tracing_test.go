package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{ServiceName: "test-service"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no export happens.
	shutdown, err := Setup(context.Background(), Config{
		Endpoint:    "http://192.0.2.1:4318",
		ServiceName: "test-service",
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartEnd(t *testing.T) {
	ctx, span := Start(context.Background(), "unit", attribute.Int64("user.id", 1))
	require.NotNil(t, ctx)
	End(span, errors.New("boom"))
	End(span, nil)
}
