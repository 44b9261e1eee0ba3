package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector("venturelink_test")

	c.RecordMessageSent()
	c.RecordMessageSent()
	c.RecordRequestCreated()
	c.RecordRequestResponded("accepted")
	c.SetActiveConnections(3)
	c.RecordBroadcast(2, 1)
	c.RecordRelay(1, 0)
	c.RecordStoreOperation("PutItem", errors.New("boom"), time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/v1/conversations/{peerId}", 200, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.MessagesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RequestsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RequestsResponded.WithLabelValues("accepted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.ActiveConnections))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.FramesDelivered))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FramesDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FramesRelayed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("PutItem", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/v1/conversations/{peerId}", "200")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordMessageSent()
		c.RecordBroadcast(1, 1)
		c.SetActiveConnections(1)
		c.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("venturelink_test")
	c.RecordMessageSent()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "venturelink_test_messages_sent_total 1")
}
