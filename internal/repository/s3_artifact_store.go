package repository

import (
	"context"
	"io"
	"path"
	"time"

	domrepo "WikiSeer/internal/domain/repository"
	pkgs3 "WikiSeer/pkg/s3"
	"WikiSeer/pkg/util"
)

// S3ArtifactStore implements ArtifactStore over S3-compatible storage.
// Artifacts live under {prefix}/{publication date}/; the store never falls
// back to an older date.
type S3ArtifactStore struct {
	client *pkgs3.Client
	prefix string
}

func NewS3ArtifactStore(client *pkgs3.Client, prefix string) *S3ArtifactStore {
	if prefix == "" {
		prefix = "models"
	}
	return &S3ArtifactStore{client: client, prefix: prefix}
}

func (s *S3ArtifactStore) List(ctx context.Context, date time.Time) ([]string, error) {
	return s.client.ListKeys(ctx, path.Join(s.prefix, util.FormatDate(date))+"/")
}

func (s *S3ArtifactStore) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.client.GetObject(ctx, key)
}

var _ domrepo.ArtifactStore = (*S3ArtifactStore)(nil)
