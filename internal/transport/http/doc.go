// Package http implements the explorer's HTTP handlers. Handlers stay thin:
// they parse path and query parameters, call the explorer service and render
// the result; every view and aggregation lives in the service layer.
//
// # Handlers
//
//	HealthHandler     /api/health, /api/health/ready, /api/health/live, /api/version
//	DatasetsHandler   /api/datasets, POST /api/datasets/{key}/reload
//	ElectionHandler   /api/elections/{office}/...
//	EVHandler         /api/ev/...
//	BorderHandler     /api/border/...
//	AggregateHandler  POST /api/aggregate, GET /api/export/{dataset}, POST /api/export
//	MetricsHandler    /metrics
//	ClientLogHandler  POST /api/logs
//
// # Responses
//
// Successful responses use a common envelope:
//
//	{"status": "success", "data": ..., "count": n}
//
// Errors are RFC 7807 problem documents written by apierrors.ErrorHandler.
// Service sentinels map to 404 (unknown dataset, office or model, empty
// selection) and 400 (invalid year, unknown column); validation failures
// carry the rejected fields.
//
// # Downloads
//
// GET /api/export/{dataset} renders csv, xlsx or json in memory and serves
// it as an attachment named after the dataset and grouping, for example
// ev_by_make.csv.
package http
