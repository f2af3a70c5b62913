package jobs_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// gaugeValue reads the current value of a gauge (optionally with labels)
// registered against the default registry, by name. Jobs only have an
// observable effect through the metrics package's package-level collectors,
// so tests gather from the registry rather than reaching into metrics'
// unexported vars from an external test package.
func gaugeValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	v, ok := gaugeValueOK(t, name, labels)
	require.True(t, ok, "metric %s with labels %v not found", name, labels)
	return v
}

func gaugeValueOK(t *testing.T, name string, labels map[string]string) (float64, bool) {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	if len(want) == 0 {
		return len(m.GetLabel()) == 0 || allLabelsPresent(m, want)
	}
	return allLabelsPresent(m, want)
}

func allLabelsPresent(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}
