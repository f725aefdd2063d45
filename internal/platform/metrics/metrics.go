// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes the Prometheus instruments of the Asha Assist API.
//
// Instruments are registered against an explicit [prometheus.Registerer] so
// tests can use a throwaway registry instead of the global default.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verification outcomes used as the "result" label.
const (
	ResultVerified = "verified"
	ResultRejected = "rejected"
)

// Metrics tracks visit verification and request authorization.
//
// All methods are safe on a nil receiver, which records nothing.
type Metrics struct {
	VisitsStarted          prometheus.Counter
	OTPDeliveryFailures    prometheus.Counter
	OTPVerifications       *prometheus.CounterVec
	AuthorizationDecisions *prometheus.CounterVec
	SMSDeliveryDuration    prometheus.Histogram
	HTTPRequestDuration    *prometheus.HistogramVec
}

// New creates a new Metrics instance with every instrument registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		VisitsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "asha_visits_started_total",
			Help: "Total number of visits persisted after successful OTP delivery",
		}),
		OTPDeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "asha_otp_delivery_failures_total",
			Help: "Total number of start-visit calls aborted because the OTP SMS failed",
		}),
		OTPVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asha_otp_verifications_total",
			Help: "OTP verification attempts by result",
		}, []string{"result"}),
		AuthorizationDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asha_authorization_decisions_total",
			Help: "Authorization policy decisions by outcome",
		}, []string{"decision"}),
		SMSDeliveryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "asha_sms_delivery_duration_seconds",
			Help:    "Duration of calls to the SMS provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "asha_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

// IncrementVisitsStarted records a persisted visit.
func (m *Metrics) IncrementVisitsStarted() {
	if m == nil {
		return
	}
	m.VisitsStarted.Inc()
}

// IncrementDeliveryFailures records an aborted start-visit call.
func (m *Metrics) IncrementDeliveryFailures() {
	if m == nil {
		return
	}
	m.OTPDeliveryFailures.Inc()
}

// RecordVerification records the outcome of a verify call.
func (m *Metrics) RecordVerification(verified bool) {
	if m == nil {
		return
	}
	result := ResultRejected
	if verified {
		result = ResultVerified
	}
	m.OTPVerifications.WithLabelValues(result).Inc()
}

// RecordDecision records an authorization policy decision.
func (m *Metrics) RecordDecision(decision string) {
	if m == nil {
		return
	}
	m.AuthorizationDecisions.WithLabelValues(decision).Inc()
}

// ObserveSMSDelivery records the duration of a provider call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSMSDelivery(start time.Time) {
	if m == nil {
		return
	}
	m.SMSDeliveryDuration.Observe(time.Since(start).Seconds())
}

// ObserveHTTPRequest records request latency labelled by status class ("2xx").
func (m *Metrics) ObserveHTTPRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	class := string(rune('0'+status/100)) + "xx"
	m.HTTPRequestDuration.WithLabelValues(method, class).Observe(elapsed.Seconds())
}
