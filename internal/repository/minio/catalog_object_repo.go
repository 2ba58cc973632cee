package minio

import (
	"context"
	"io"

	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// CatalogObjectRepo читает файлы каталога из MinIO.
type CatalogObjectRepo struct {
	mc *minio.Client
}

func NewCatalogObjectRepo(mc *minio.Client) *CatalogObjectRepo {
	return &CatalogObjectRepo{mc: mc}
}

// Open возвращает поток объекта. Несуществующий объект обнаруживается сразу, а не при первом чтении.
func (c *CatalogObjectRepo) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return obj, nil
}
