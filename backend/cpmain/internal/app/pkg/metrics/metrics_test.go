package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveQuote("standard", "air", "ok", time.Millisecond)
	m.ObserveQuote("standard", "air", "ok", time.Millisecond)
	m.MissingRates([]string{"standardDox.road.add500gm.assamToRoi"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.quotes.WithLabelValues("standard", "air", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.missingRates.WithLabelValues("standardDox.road.add500gm.assamToRoi")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.BatchFinished("QUOTED")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cpq_quote_batches_total{status="QUOTED"} 1`)
}
