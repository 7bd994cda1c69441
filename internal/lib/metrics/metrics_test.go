package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSweep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSweep(3, 1, 2*time.Second)
	m.ObserveSweep(2, 0, time.Second)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.MessagesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesFailed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Sweeps))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP controtec_sweeps_total Completed dispatch sweeps.
# TYPE controtec_sweeps_total counter
controtec_sweeps_total 2
`), "controtec_sweeps_total")
	require.NoError(t, err)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveSweep(1, 1, time.Second) })
}

func TestNewWithoutRegistry(t *testing.T) {
	m := New(nil)
	m.ObserveSweep(1, 0, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesSent))
}
