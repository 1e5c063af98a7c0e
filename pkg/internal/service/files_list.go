package service

import (
	"context"
	"fmt"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

// List 返回 owner 可见的全部文件，按上传时间倒序.
// 结果是一次性快照，调用方整体替换本地列表而非增量修补.
func (fs *FileService) List(ctx context.Context, owner string) (*types.ListFilesResponse, error) {
	var recs []model.FileRecord

	if err := fs.dbClient.GetDB().WithContext(ctx).
		Where("owner = ?", owner).
		Order("upload_date DESC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	resp := &types.ListFilesResponse{
		Files: make([]types.FileInfo, 0, len(recs)),
		Total: int64(len(recs)),
	}

	for i := range recs {
		resp.Files = append(resp.Files, toFileInfo(&recs[i], true))
	}

	return resp, nil
}

// getOwned 按 id 与 owner 取一条记录，owner 不匹配与不存在同样返回 ErrNotFound.
func (fs *FileService) getOwned(ctx context.Context, owner string, id uint) (*model.FileRecord, error) {
	var rec model.FileRecord

	res := fs.dbClient.GetDB().WithContext(ctx).
		Where("id = ? AND owner = ?", id, owner).
		Limit(1).
		Find(&rec)
	if res.Error != nil {
		return nil, fmt.Errorf("query file %d: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return &rec, nil
}
