// Package api implements the HTTP surface of csexporter.
//
// New(engine, metricsPath) returns an http.Handler that serves:
//
//	GET /api/v1/health          constant check result and bound count
//	GET /api/v1/bounds          every configured bound with its schedule
//	GET /api/v1/bounds/{name}   one bound; 404 if unknown
//	GET /api/v1/threshold       ad hoc threshold, span or range evaluation
//	GET /api/v1/quantile        ad hoc quantile slop and rank window
//	GET <metricsPath>           Prometheus exposition of all schedules
//
// All JSON endpoints return 405 for non-GET methods and 400 with an error
// body for malformed query parameters. Infinite widths are encoded as the
// strings "+Inf" and "-Inf". JSON types are defined in types.go.
package api
