// Package observability builds the service's zap logger and its Prometheus
// metrics. Metrics live on a private registry exposed through Handler.
package observability
