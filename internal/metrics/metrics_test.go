package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journey-simulator/internal/journey"
)

func TestObserveStatus(t *testing.T) {
	c := NewCollector(9*time.Second, 2500*time.Millisecond, 100*time.Millisecond)
	assert.Equal(t, 2.5, testutil.ToFloat64(c.DwellSeconds))

	c.ObserveStatus(journey.Status{Phase: journey.PhaseMoving, CurrentIndex: 3},
		journey.ETA{Kind: journey.ETAEnRoute, Remaining: 1500 * time.Millisecond})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Phase.WithLabelValues("MOVING")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Phase.WithLabelValues("STOPPED")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.CurrentIndex))
	assert.Equal(t, 1.5, testutil.ToFloat64(c.SelectedETA))

	c.ObserveStatus(journey.Status{Phase: journey.PhaseDone, CurrentIndex: 4}, journey.ETA{Kind: journey.ETAUnavailable})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Phase.WithLabelValues("DONE")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Phase.WithLabelValues("MOVING")))
	assert.Equal(t, -1.0, testutil.ToFloat64(c.SelectedETA))
}

func TestPublisherAdapter(t *testing.T) {
	c := NewCollector(time.Second, 0, 100*time.Millisecond)
	p := Publisher{C: c}
	p.NATSPublishedInc()
	p.NATSPublishErrInc()
	p.NATSSetConnected(true)
	p.ControlInc("reverse")
	p.ControlInc("reverse")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.NATSPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NATSPublishErrs))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NATSConnected))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ControlCommands.WithLabelValues("reverse")))
}

func TestRouter(t *testing.T) {
	c := NewCollector(time.Second, 0, 100*time.Millisecond)
	c.Ticks.Add(7)
	status := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"phase":"MOVING"}`))
	})
	srv := httptest.NewServer(c.Router(status, []string{"*"}))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(b)
	}

	code, body := get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "journey_ticks_total 7")

	code, body = get("/status")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"phase":"MOVING"}`, body)

	code, _ = get("/nope")
	assert.Equal(t, http.StatusNotFound, code)
}
