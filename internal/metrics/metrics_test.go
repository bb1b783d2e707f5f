package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAnalysis(t *testing.T) {
	success := testutil.ToFloat64(AnalysesTotal.WithLabelValues(OutcomeSuccess))
	fallback := testutil.ToFloat64(AnalysesTotal.WithLabelValues(OutcomeFallback))
	failed := testutil.ToFloat64(AnalysesTotal.WithLabelValues(OutcomeError))
	fallbacks := testutil.ToFloat64(FallbacksTotal)

	ObserveAnalysis(false, nil)
	ObserveAnalysis(true, nil)
	ObserveAnalysis(false, errors.New("boom"))

	assert.Equal(t, success+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, fallback+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues(OutcomeFallback)))
	assert.Equal(t, failed+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues(OutcomeError)))
	assert.Equal(t, fallbacks+1, testutil.ToFloat64(FallbacksTotal))
}
