package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	m := New()
	m.ObserveOp("open_position", 2*time.Millisecond, nil)
	m.ObserveOp("open_position", time.Millisecond, errors.New("bad"))
	m.ObserveNotify(nil)
	m.ObserveSignal("momentum_4h_bullish")
	m.SetScore(85)
	m.SetPositions(2, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookOps.WithLabelValues("open_position", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookOps.WithLabelValues("open_position", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("ok")))
	assert.Equal(t, 85.0, testutil.ToFloat64(m.Score))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OpenPositions.WithLabelValues("long")))
}

func TestHandlerServesPrivateRegistry(t *testing.T) {
	m := New()
	m.ObserveInbound("telegram", "command")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `us30bot_inbound_messages_total{kind="command",source="telegram"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
