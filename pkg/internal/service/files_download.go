package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

// OpenFile 打开 owner 拥有的文件对象用于流式下载，调用方负责 Close.
func (fs *FileService) OpenFile(ctx context.Context, owner string, id uint) (io.ReadCloser, *model.FileRecord, error) {
	rec, err := fs.getOwned(ctx, owner, id)
	if err != nil {
		return nil, nil, err
	}

	rd, err := fs.openBlob(ctx, rec)
	if err != nil {
		return nil, nil, err
	}

	return rd, rec, nil
}

// openBlob 打开记录对应的对象.
func (fs *FileService) openBlob(ctx context.Context, rec *model.FileRecord) (io.ReadCloser, error) {
	rd, err := fs.blob.GetObject(ctx, rec.Bucket, rec.StorageKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", rec.StorageKey, err)
	}

	return rd, nil
}

// PresignedGetURL 为 owner 拥有的文件生成限时下载链接.
func (fs *FileService) PresignedGetURL(ctx context.Context, owner string, id uint, expiry time.Duration) (*types.PresignedURLResponse, error) {
	rec, err := fs.getOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if expiry <= 0 {
		expiry = DefaultPresignedOpTimeout
	}

	u, err := fs.blob.PresignedGetObject(ctx, rec.Bucket, rec.StorageKey, expiry, nil)
	if err != nil {
		return nil, fmt.Errorf("presign get for %s: %w", rec.StorageKey, err)
	}

	return &types.PresignedURLResponse{
		URL:       u.String(),
		ExpiresIn: int(expiry.Seconds()),
	}, nil
}
