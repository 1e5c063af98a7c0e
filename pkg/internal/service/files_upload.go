package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/yeisme/dropvault/pkg/configs"
	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
	"github.com/yeisme/dropvault/pkg/metrics"
	"github.com/yeisme/dropvault/pkg/queue"
	nlog "github.com/yeisme/dropvault/pkg/log"
)

// UploadInput 单个待上传文件.
type UploadInput struct {
	FileName    string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// Upload 批量上传，按顺序逐个处理，单个失败不影响其余文件.
func (fs *FileService) Upload(ctx context.Context, owner string, files []UploadInput) *types.UploadFilesResponse {
	resp := &types.UploadFilesResponse{
		Results: make([]types.UploadFileResponse, 0, len(files)),
	}

	for i := range files {
		info, err := fs.uploadOne(ctx, owner, &files[i])
		if err != nil {
			resp.Results = append(resp.Results, types.UploadFileResponse{
				Success: false,
				Error:   err.Error(),
			})
			resp.Failed++

			continue
		}

		resp.Results = append(resp.Results, types.UploadFileResponse{
			File:    info,
			Success: true,
		})
		resp.Stored++
	}

	return resp
}

// uploadOne 两阶段写：先写对象，再插元数据行.
// 插入失败时对象保留为孤儿（记录日志与指标，不做补偿删除），由巡检任务观测.
func (fs *FileService) uploadOne(ctx context.Context, owner string, in *UploadInput) (*types.FileInfo, error) {
	if err := fs.validateUpload(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	key, err := buildStorageKey(in.FileName, now)
	if err != nil {
		return nil, err
	}

	// 令牌随插入行一起生成，文件落库即可分享
	token, err := fs.issueToken(ctx)
	if err != nil {
		return nil, err
	}

	uploadInfo, err := fs.blob.PutObject(ctx, fs.bucket, key, in.Reader, in.Size, minio.PutObjectOptions{
		ContentType: in.ContentType,
	})
	if err != nil {
		metrics.UploadCounter.WithLabelValues("blob_failed").Inc()
		return nil, fmt.Errorf("store blob %s: %w", in.FileName, err)
	}

	rec := model.FileRecord{
		Owner:        owner,
		StorageKey:   key,
		OriginalName: in.FileName,
		Size:         in.Size,
		ContentType:  in.ContentType,
		ETag:         uploadInfo.ETag,
		Bucket:       fs.bucket,
		ShareToken:   token,
		UploadDate:   now,
		DownloadURL:  buildDownloadURL(key),
	}

	if err := fs.dbClient.GetDB().WithContext(ctx).Create(&rec).Error; err != nil {
		// 对象已写入但元数据落库失败，孤儿对象留在桶中
		metrics.UploadCounter.WithLabelValues("insert_failed").Inc()
		nlog.Logger().Warn().Err(err).
			Str("storage_key", key).
			Str("bucket", fs.bucket).
			Msg("metadata insert failed, blob orphaned")

		return nil, fmt.Errorf("insert metadata for %s: %w", in.FileName, err)
	}

	metrics.UploadCounter.WithLabelValues("ok").Inc()
	metrics.UploadBytes.Observe(float64(in.Size))

	fs.publishStored(ctx, &rec)

	info := toFileInfo(&rec, true)

	return &info, nil
}

// validateUpload 在任何后端调用前拒绝超限或被拒类型的文件.
func (fs *FileService) validateUpload(in *UploadInput) error {
	cfg := configs.GetConfig().Upload

	if in.FileName == "" {
		return fmt.Errorf("%w: file name required", ErrValidation)
	}

	if in.Size > cfg.MaxSizeBytes {
		return fmt.Errorf("%w: file %s exceeds %d bytes", ErrValidation, in.FileName, cfg.MaxSizeBytes)
	}

	if cfg.IsTypeDenied(in.ContentType) {
		return fmt.Errorf("%w: content type %s not allowed", ErrValidation, in.ContentType)
	}

	return nil
}

// publishStored 发布 dv.file.stored 事件，失败只告警.
func (fs *FileService) publishStored(ctx context.Context, rec *model.FileRecord) {
	if fs.mqClient == nil || !configs.GetConfig().Events.File.Stored {
		return
	}

	payload := queue.FileStoredPayload{
		Object: queue.ObjectRef{
			Bucket:      rec.Bucket,
			ObjectKey:   rec.StorageKey,
			ETag:        rec.ETag,
			Size:        rec.Size,
			ContentType: rec.ContentType,
		},
		FileID:   rec.ID,
		Owner:    rec.Owner,
		FileName: rec.OriginalName,
	}

	msg, err := queue.NewWatermillMessage(queue.TopicFileStored, payload, queue.WithProducer("dropvault"))
	if err == nil {
		err = fs.mqClient.Publish(ctx, queue.TopicFileStored, msg)
	}

	if err != nil {
		l := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
		l.Warn().Err(err).Uint("file_id", rec.ID).Msg("publish file.stored failed")
	}
}
