// Package api serves dependency resolution, upgrade ordering and mirror
// downloads over HTTP.
//
// # Routes
//
//	GET  /healthz          liveness probe
//	GET  /v1/version       build information
//	POST /v1/missing       {"names": ["yay", "go>=1.21"]}
//	POST /v1/known         {"packages": ["extra/go", "aur/yay"], "expand": true}
//	POST /v1/order         {"packages": [{"name": "go", "repository": "extra"}]}
//	POST /v1/download      {"names": ["go"]}
//
// POST /v1/order also accepts ?format=dot or ?format=svg.
//
// Errors are JSON objects {"code": ..., "message": ...} carrying a code
// from package errors; the HTTP status is derived from the code.
package api
