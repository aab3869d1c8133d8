// Package http implements the HTTP handlers for the reconciliation web service.
// Handlers stay thin: they parse and validate the request, delegate to the
// services layer and render the response.
//
// # Endpoints
//
//	POST   /api/analyses               multipart upload of forecast and actual files
//	GET    /api/analyses               retained runs, newest first
//	GET    /api/analyses/{id}          full accuracy result
//	GET    /api/analyses/{id}/summary  run summary with step timings
//	GET    /api/analyses/{id}/export   download as csv or xlsx (?format=)
//	DELETE /api/analyses/{id}          forget a run
//	GET    /api/health[/ready|/live]   health probes
//
// # Error Handling
//
// Every failure is rendered as RFC 7807 Problem Details by the shared
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/input/file-empty",
//	    "title": "Input File Empty",
//	    "status": 422,
//	    "detail": "CSV file 'forecast.csv' appears to be empty or contains only headers",
//	    "instance": "/api/analyses",
//	    "kind": "file_empty",
//	    "file": "forecast.csv",
//	    "trace_id": "..."
//	}
//
// Handlers are tested with httptest against the real services.
package http
