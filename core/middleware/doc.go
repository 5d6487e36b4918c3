// Package middleware groups the HTTP middleware of the Fiber application.
//
//   - auth: API key validation protecting every endpoint.
//   - rayid: a unique request id (RayID) per request, stored in the context
//     and echoed in the response headers for tracing.
package middleware
