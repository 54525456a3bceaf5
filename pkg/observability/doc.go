// Package observability provides structured JSON logging, Prometheus metrics
// and health checks for the back-office API.
//
// Create a logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("request_id", reqID).Info("request handled")
//
// Metrics are registered on a private registry so tests can create as many
// instances as they like:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/rooms", "200").Inc()
package observability
