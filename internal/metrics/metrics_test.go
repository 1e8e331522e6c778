package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionsCounted(t *testing.T) {
	m := New()
	m.Transitions.WithLabelValues("verify_payment").Inc()
	m.Transitions.WithLabelValues("verify_payment").Inc()
	m.RejectedTransition.WithLabelValues("cancel", "cancel_otp_required").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("verify_payment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedTransition.WithLabelValues("cancel", "cancel_otp_required")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	m.OrdersCreated.Inc()

	r := gin.New()
	r.GET("/metrics", m.Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nexusmart_orders_created_total 1")
}
