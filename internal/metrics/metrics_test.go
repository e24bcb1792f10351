package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveIntent("rename", "accepted")
	r.ObserveIntent("rename", "accepted")
	r.ObserveIntent("delete", "rejected")
	r.ObserveSettlement("rename", "success", 20*time.Millisecond)
	r.ObserveSettlement("delete", "failure", time.Second)
	r.SetPending(3)
	r.RecordListing(time.Millisecond, true)
	r.RecordListing(time.Millisecond, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.intentsTotal.WithLabelValues("rename", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.intentsTotal.WithLabelValues("delete", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.settlementsTotal.WithLabelValues("delete", "failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.pendingMutations))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.listingsTotal.WithLabelValues("error")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.settlementDuration))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveIntent("rename", "accepted")
		r.ObserveSettlement("rename", "success", time.Second)
		r.SetPending(1)
		r.RecordListing(time.Second, true)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	r.ObserveIntent("move", "accepted")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `fileflow_intents_total{op="move",result="accepted"} 1`))
}
