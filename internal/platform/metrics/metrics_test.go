// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/ashaassist/internal/platform/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.IncrementVisitsStarted()
	m.IncrementDeliveryFailures()
	m.IncrementDeliveryFailures()
	m.RecordVerification(true)
	m.RecordVerification(false)
	m.RecordVerification(false)
	m.RecordDecision("forbidden")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisitsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OTPDeliveryFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OTPVerifications.WithLabelValues(metrics.ResultVerified)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OTPVerifications.WithLabelValues(metrics.ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthorizationDecisions.WithLabelValues("forbidden")))
}

func TestMetrics_HTTPStatusClass(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveHTTPRequest(http.MethodGet, http.StatusNotFound, 10*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}

/*
TestMetrics_NilReceiver verifies that an absent Metrics records nothing without panicking.
*/
func TestMetrics_NilReceiver(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.IncrementVisitsStarted()
		m.RecordVerification(true)
		m.RecordDecision("allowed")
		m.ObserveSMSDelivery(time.Now())
	})
}
