package observability

import (
	"context"
	"testing"
	"time"

	"lingotext/internal/config"
	contextutils "lingotext/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_UnsupportedProtocol(t *testing.T) {
	_, err := InitMetrics(&config.OpenTelemetryConfig{
		Endpoint: "localhost:4317",
		Protocol: "carrier-pigeon",
	})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInternalError))
}

func TestInitMetrics_GRPC(t *testing.T) {
	mp, err := InitMetrics(&config.OpenTelemetryConfig{
		Endpoint:    "localhost:4317",
		Protocol:    "grpc",
		Insecure:    true,
		ServiceName: "lingotext-test",
	})
	require.NoError(t, err)
	require.NotNil(t, mp)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = mp.Shutdown(ctx)
}

func TestRecordHelpers_NoopWithoutProvider(t *testing.T) {
	// Without a configured meter provider these must be safe no-ops
	ctx := context.Background()
	RecordSubmissionGraded(ctx, "translation", false)
	RecordSubmissionGraded(ctx, "translation", true)
	RecordPDFJobProcessed(ctx, true)
	RecordPDFJobProcessed(ctx, false)
	RecordPDFMergeDuration(ctx, 250*time.Millisecond)
}
