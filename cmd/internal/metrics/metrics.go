// Package metrics holds the portal's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nexus"

var (
	Registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "registrations_total", Help: "Registration attempts by role and outcome",
	}, []string{"role", "result"})
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "logins_total", Help: "Login attempts by role and outcome",
	}, []string{"role", "result"})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by route and status class",
	}, []string{"method", "route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Registrations, Logins, HTTPRequests, HTTPDuration, DBPing)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveRegistration counts one registration attempt.
func ObserveRegistration(role, result string) { Registrations.WithLabelValues(role, result).Inc() }

// ObserveLogin counts one login attempt.
func ObserveLogin(role, result string) { Logins.WithLabelValues(role, result).Inc() }

// ObserveHTTP records one request. route is the matched pattern, not the raw path.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	method = methodLabel(method)
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status/100)+"xx").Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// methodLabel folds client-chosen method tokens onto a fixed label set.
func methodLabel(m string) string {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return m
	}
	return "other"
}

// ObserveDBPing records the latency of one readiness ping.
func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
