package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	finished := time.Unix(1767225600, 0)

	m.ObserveRun("stuck_generation_reaper", CronOutcomeSuccess, 250*time.Millisecond, finished)
	m.ObserveRun("stuck_generation_reaper", CronOutcomeFailure, time.Second, finished.Add(time.Minute))
	m.ObserveRun("", CronOutcomePanic, 0, finished)
	m.IncSkipped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("stuck_generation_reaper", CronOutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("stuck_generation_reaper", CronOutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("unknown", CronOutcomePanic)))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues("stuck_generation_reaper")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped))

	count, err := testutil.GatherAndCount(reg, "genmedia_cron_job_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCronJobMetricsNilIsNoop(t *testing.T) {
	var m *CronJobMetrics
	assert.NotPanics(t, func() {
		m.ObserveRun("job", CronOutcomeSuccess, time.Second, time.Now())
		m.IncSkipped()
	})
	assert.Nil(t, NewCronJobMetrics(nil))
}
