// Package config provides configuration management for contact-sync.
//
// It uses Viper to merge, in increasing precedence, the defaults declared in
// struct tags, an optional config.yaml, a .env file and environment variables
// (SERVER_PORT overrides server.port).
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, body limit
//   - Storage: S3/MinIO credentials and the bucket holding exports
//   - Log: level, format and optional rotated log file
//   - Database: local record store (mysql or sqlite)
//   - Sync: tombstone marker, xref source key, cache TTL, export object keys
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Sync.Tombstone)
package config
