// Package utils provides common utility functions for contact-sync.
// It includes loose type conversions used when values cross a storage boundary
// (database columns, decoded JSON/YAML) and have to be compared or combined.
package utils
