// Package observability provides logging and metrics support for the paper
// discovery service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.WithComponent(logger, "aggregator")
//
// The HTTP layer attaches a request-scoped logger to each request context;
// downstream code retrieves it with LoggerFromContext.
//
// # Metrics
//
//	metrics := observability.NewMetrics("paper_discovery")
//	metrics.RecordSourceSearch("ArXiv", 10, 0.42, nil)
//	metrics.RecordSummaryGenerated(observability.SummaryPathHeuristic)
//
// # Standard Fields
//
//   - request_id: chi request identifier
//   - correlation_id: caller-supplied or generated correlation identifier
//   - component: emitting subsystem
//   - query: search text
//   - source: paper source name
//   - paper_id, doi: paper identity
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
