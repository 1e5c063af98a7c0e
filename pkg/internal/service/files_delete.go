package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/dropvault/pkg/configs"
	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
	"github.com/yeisme/dropvault/pkg/metrics"
	"github.com/yeisme/dropvault/pkg/queue"
	nlog "github.com/yeisme/dropvault/pkg/log"
)

// maxConcurrentDeletes 批量删除的并发上限.
const maxConcurrentDeletes = 8

// Delete 删除单个文件：先删对象，再删元数据行.
// id 与 owner 同时过滤，owner 不匹配视同不存在；重复删除得到干净的 ErrNotFound.
func (fs *FileService) Delete(ctx context.Context, owner string, id uint) error {
	rec, err := fs.getOwned(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := fs.blob.RemoveObject(ctx, rec.Bucket, rec.StorageKey, minio.RemoveObjectOptions{}); err != nil {
		metrics.DeleteCounter.WithLabelValues("blob_failed").Inc()
		return fmt.Errorf("remove blob %s: %w", rec.StorageKey, err)
	}

	if err := fs.dbClient.GetDB().WithContext(ctx).Delete(&model.FileRecord{}, rec.ID).Error; err != nil {
		// 对象已删而行还在，留给下一次删除尝试
		metrics.DeleteCounter.WithLabelValues("row_failed").Inc()
		nlog.Logger().Warn().Err(err).Uint("file_id", rec.ID).Msg("row delete failed after blob removal")

		return fmt.Errorf("delete metadata %d: %w", rec.ID, err)
	}

	// 行已删，分享缓存条目失效
	fs.invalidateShareCache(ctx, rec.ShareToken)

	metrics.DeleteCounter.WithLabelValues("ok").Inc()
	fs.publishDeleted(ctx, rec)

	return nil
}

// BatchDelete 并发删除指定 id 集合，逐项聚合结果，部分失败不回滚其余删除.
func (fs *FileService) BatchDelete(ctx context.Context, owner string, ids []uint) *types.BatchDeleteResponse {
	resp := &types.BatchDeleteResponse{
		Results: make([]types.DeleteFileResponse, len(ids)),
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDeletes)

	for i, id := range ids {
		g.Go(func() error {
			err := fs.Delete(gctx, owner, id)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				resp.Results[i] = types.DeleteFileResponse{ID: id, Deleted: false, Error: err.Error()}
				resp.Failed++
			} else {
				resp.Results[i] = types.DeleteFileResponse{ID: id, Deleted: true}
				resp.Deleted++
			}

			// 单项失败不终止组内其他删除
			return nil
		})
	}

	_ = g.Wait()

	return resp
}

// ClearAll 删除 owner 的全部文件，复用批量删除的并发路径.
func (fs *FileService) ClearAll(ctx context.Context, owner string) (*types.BatchDeleteResponse, error) {
	var ids []uint

	if err := fs.dbClient.GetDB().WithContext(ctx).
		Model(&model.FileRecord{}).
		Where("owner = ?", owner).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list files for clear: %w", err)
	}

	return fs.BatchDelete(ctx, owner, ids), nil
}

// invalidateShareCache 删除分享令牌的 KV 缓存条目.
func (fs *FileService) invalidateShareCache(ctx context.Context, token string) {
	if token == "" || fs.kvClient == nil {
		return
	}

	if err := fs.kvClient.Delete(ctx, shareCacheKey(token)); err != nil {
		nlog.Logger().Debug().Err(err).Msg("share cache invalidation failed")
	}
}

// publishDeleted 发布 dv.file.deleted 事件，失败只告警.
func (fs *FileService) publishDeleted(ctx context.Context, rec *model.FileRecord) {
	if fs.mqClient == nil || !configs.GetConfig().Events.File.Deleted {
		return
	}

	payload := queue.FileDeletedPayload{
		Object: queue.ObjectRef{
			Bucket:    rec.Bucket,
			ObjectKey: rec.StorageKey,
			Size:      rec.Size,
		},
		FileID: rec.ID,
		Owner:  rec.Owner,
	}

	msg, err := queue.NewWatermillMessage(queue.TopicFileDeleted, payload, queue.WithProducer("dropvault"))
	if err == nil {
		err = fs.mqClient.Publish(ctx, queue.TopicFileDeleted, msg)
	}

	if err != nil {
		l := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
		l.Warn().Err(err).Uint("file_id", rec.ID).Msg("publish file.deleted failed")
	}
}
