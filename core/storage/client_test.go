package storage_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"contact-sync/core/storage"
	"contact-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{"ValidConfig", storage.Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Region: "us-east-1"}},
		{"EndpointWithHTTP", storage.Config{Endpoint: "http://localhost:9000", AccessKey: "k", SecretKey: "s"}},
		{"EndpointWithHTTPS", storage.Config{Endpoint: "https://s3.amazonaws.com", AccessKey: "k", SecretKey: "s", UseSSL: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := storage.NewClient(tt.cfg)
			assert.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestConfig_Timeout(t *testing.T) {
	assert.Equal(t, "30s", storage.Config{}.Timeout().String())
	assert.Equal(t, "5s", storage.Config{TimeoutSeconds: 5}.Timeout().String())
}

func TestEnsureBucket(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "contacts").Return(true, nil)

		assert.NoError(t, storage.EnsureBucket(context.Background(), client, "contacts"))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "contacts").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "contacts", mock.Anything).Return(nil)

		assert.NoError(t, storage.EnsureBucket(context.Background(), client, "contacts"))
		client.AssertExpectations(t)
	})

	t.Run("CheckFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "contacts").Return(false, fmt.Errorf("denied"))

		assert.ErrorContains(t, storage.EnsureBucket(context.Background(), client, "contacts"), "denied")
	})
}

func TestReadWriteObject(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "contacts", "in.json", mock.Anything).Return(mocks.Body(`{"a":1}`), nil)
	client.On("GetObject", mock.Anything, "contacts", "missing.json", mock.Anything).Return(nil, fmt.Errorf("no such key"))

	var written []byte
	client.On("PutObject", mock.Anything, "contacts", "out.json", mock.Anything, int64(7), mock.Anything).
		Run(func(args mock.Arguments) {
			written, _ = io.ReadAll(args.Get(3).(io.Reader))
			opts := args.Get(5).(minio.PutObjectOptions)
			assert.Equal(t, "application/json", opts.ContentType)
		}).
		Return(minio.UploadInfo{}, nil)

	data, err := storage.ReadObject(context.Background(), client, "contacts", "in.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	_, err = storage.ReadObject(context.Background(), client, "contacts", "missing.json")
	assert.ErrorContains(t, err, "missing.json")

	require.NoError(t, storage.WriteObject(context.Background(), client, "contacts", "out.json", data, "application/json"))
	assert.True(t, bytes.Equal(data, written))
}

func TestLatestObject(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "contacts", minio.ListObjectsOptions{Prefix: "export/", Recursive: true}).
		Return(mocks.Listing("export/2024-01-02.json", "export/2024-03-01.json", "export/notes.txt", "export/2023-12-31.json"))
	client.On("ListObjects", mock.Anything, "contacts", minio.ListObjectsOptions{Prefix: "empty/", Recursive: true}).
		Return(mocks.Listing())

	key, err := storage.LatestObject(context.Background(), client, "contacts", "export/", ".json")
	require.NoError(t, err)
	assert.Equal(t, "export/2024-03-01.json", key)

	_, err = storage.LatestObject(context.Background(), client, "contacts", "empty/", ".json")
	assert.Error(t, err)
}
