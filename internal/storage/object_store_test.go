package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"realty/api/internal/config"
)

func TestPublicURL(t *testing.T) {
	cfg := config.StorageConfig{Endpoint: "minio.local:9000", BucketPhotos: "photos"}
	require.Equal(t, "https://minio.local:9000/photos/a/b.jpg", PublicURL(cfg, "a/b.jpg"))

	cfg.Endpoint = "http://minio.local:9000/"
	require.Equal(t, "http://minio.local:9000/photos/a/b.jpg", PublicURL(cfg, "a/b.jpg"))

	cfg.PublicURL = "https://cdn.example.com/"
	require.Equal(t, "https://cdn.example.com/a/b.jpg", PublicURL(cfg, "a/b.jpg"))
}
