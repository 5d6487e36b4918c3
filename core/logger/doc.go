// Package logger provides a structured logging facility based on Zap.
//
// Debug level selects zap's development configuration, anything else the
// production one. Output goes to stdout as json or console; when a file is
// configured a JSON copy is also written there and rotated by lumberjack.
//
// # Context Awareness
//
// WithRayID extracts the RayID (request id) from a Fiber context and attaches it
// to the logger, so that all logs of one request can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Server started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
