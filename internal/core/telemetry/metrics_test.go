package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func TestAppMetrics_AccountOperations(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewAppMetrics(registry)
	ctx := context.Background()

	metrics.RecordAccountOperation(ctx, "create", "ok")
	metrics.RecordAccountOperation(ctx, "create", "ok")
	metrics.RecordAccountOperation(ctx, "create", "error")
	metrics.RecordLoginAttempt(ctx, "invalid_credentials")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.accountOperations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.accountOperations.WithLabelValues("create", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.loginAttempts.WithLabelValues("invalid_credentials")))

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestOTELProbe_CountsServiceOperations(t *testing.T) {
	metrics := NewAppMetrics(prometheus.NewRegistry())
	probe := NewOTELProbe(otelzap.New(zap.NewNop()), metrics)
	ctx := context.Background()

	ctx, span := probe.StartServiceSpan(ctx, "account", "revoke", "admin", nil)
	probe.RecordServiceOperation(ctx, "account", "revoke", "admin", 0, nil)
	probe.RecordServiceOperation(ctx, "account", "revoke", "admin", 0, errors.New("boom"))
	span.End()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.accountOperations.WithLabelValues("revoke", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.accountOperations.WithLabelValues("revoke", "error")))
}
