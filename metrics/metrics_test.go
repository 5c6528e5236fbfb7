package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestCollectorsAreWellFormed(t *testing.T) {
	for _, c := range []prometheus.Collector{
		SessionInitTotal, SessionInitFailuresTotal, SessionInitDuration,
		ImageFetchBytesTotal, ImageFetchTotal,
		EngineInstancesTotal, EngineWorkersActive,
		QueryTotal, QueryRowsTotal, QueryDuration,
		APIRequestsTotal, APICacheHitsTotal,
	} {
		var problems, err = testutil.CollectAndLint(c)
		require.NoError(t, err)
		require.Empty(t, problems)
	}
}

func TestHistogramObservations(t *testing.T) {
	var before = sampleCount(t, QueryDuration)
	QueryDuration.Observe(0.25)
	QueryDuration.Observe(1.5)
	require.Equal(t, before+2, sampleCount(t, QueryDuration))

	var before2 = testutil.ToFloat64(QueryTotal.WithLabelValues(Ok))
	QueryTotal.WithLabelValues(Ok).Inc()
	require.Equal(t, before2+1, testutil.ToFloat64(QueryTotal.WithLabelValues(Ok)))
}

func sampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	return m.GetHistogram().GetSampleCount()
}
