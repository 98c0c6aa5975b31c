package telemetry

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplerDescription(t *testing.T) {
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestInitJaegerWithoutEndpoint(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	shutdown, err := InitJaeger(Options{ServiceName: ServiceName}, logrus.NewEntry(l))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
