package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.ObserveNormalized("pending", []string{"trip_missing", "driver_missing"})
	c.ObserveNormalized("pending", nil)
	c.ObserveAction("cancel", "ok")
	c.ObserveCache("hit")
	c.ObservePublishError()
	c.ObserveUpstream("list_mine", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ReservationsNormalized.WithLabelValues("pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ReservationIssues.WithLabelValues("trip_missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ReservationActions.WithLabelValues("cancel", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EventPublishErrs))
	assert.Equal(t, 1, testutil.CollectAndCount(c.UpstreamDuration))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveNormalized("pending", []string{"x"})
		c.ObserveAction("cancel", "ok")
		c.ObserveUpstream("x", time.Second)
		c.ObserveCache("miss")
		c.ObservePublishError()
		c.SetWebsocketClients(3)
	})
}

func TestHandler(t *testing.T) {
	c := NewCollector()
	c.ObserveAction("respond", "conflict")

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `carpool_reservation_actions_total{action="respond",outcome="conflict"} 1`)
}
