package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch("BTC", true, 10*time.Millisecond)
	m.ObserveFetch("BTC", true, 10*time.Millisecond)
	m.ObserveFetch("ETH", false, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchOutcomes.WithLabelValues("BTC", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchOutcomes.WithLabelValues("ETH", "failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FetchOutcomes.WithLabelValues("ETH", "success")))
}

func TestObserveTickAndPersisted(t *testing.T) {
	m := New()

	m.ObserveTick(TickOK, 200*time.Millisecond)
	m.ObserveTick(TickSkipped, 0)
	m.ObservePersisted([]string{"BTC", "ETH"}, 1700000000)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ticks.WithLabelValues(TickOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ticks.WithLabelValues(TickSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsPersisted.WithLabelValues("ETH")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastTickTimestamp))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	// None of these may panic.
	m.ObserveFetch("BTC", true, time.Millisecond)
	m.ObserveTick(TickOK, time.Millisecond)
	m.ObservePersisted([]string{"BTC"}, 1)
	m.ObserveRequest("/latest-price/{ticker}", 200)
	m.SetSubscribers(3)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("/all_prices/{ticker}", 404)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `deribit_index_http_requests_total{code="404",route="/all_prices/{ticker}"} 1`), body)
}
