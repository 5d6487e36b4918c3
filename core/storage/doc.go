// Package storage provides an abstraction layer for the object storage that
// holds record exports exchanged with the external data source.
//
// It wraps the MinIO Go client, so both AWS S3 and self-hosted MinIO work. The
// Client interface is small enough to mock (see core/storage/mocks); the helper
// functions (EnsureBucket, ReadObject, WriteObject, LatestObject) are written
// against it.
//
// # Usage
//
//	client, err := storage.NewClient(cfg)
//	data, err := storage.ReadObject(ctx, client, cfg.Bucket, "export/addressbook.json")
package storage
