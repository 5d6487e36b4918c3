// Package server holds the HTTP server configuration.
//
// The start command builds the Fiber app from it: listen port, API key, request
// body limit and read timeout.
package server
