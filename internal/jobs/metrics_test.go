package jobmetrics

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrumentRecordsRuns(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	handler := Instrument(metrics, "send_email", func(context.Context, *asynq.Task) error {
		return nil
	})
	failing := Instrument(metrics, "send_email", func(context.Context, *asynq.Task) error {
		return errors.New("smtp down")
	})

	task := asynq.NewTask("mail:send", nil)
	require.NoError(t, handler(context.Background(), task))
	require.Error(t, failing(context.Background(), task))

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("send_email", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("send_email", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("send_email")))
}

func TestNilMetricsPassThrough(t *testing.T) {
	var metrics *Metrics
	sentinel := errors.New("boom")
	handler := Instrument(metrics, "low_stock_scan", func(context.Context, *asynq.Task) error {
		return sentinel
	})
	require.ErrorIs(t, handler(context.Background(), asynq.NewTask("x", nil)), sentinel)
}
