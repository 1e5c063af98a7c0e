package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yeisme/dropvault/pkg/cache"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

// StatsService 提供统计计算（基于 DB 的 file_records 表）。
type StatsService struct{ *FileService }

func NewStatsService(c context.Context) *StatsService { return &StatsService{NewFileService(c)} }

// statsCacheTTL 聚合结果缓存时长，数据允许短暂滞后.
const statsCacheTTL = 30 * time.Second

func statsCacheKey(owner string) string {
	return "stats:" + owner
}

// Overview 返回当前用户的统计概览，KV 可用时走短 TTL 缓存.
func (s *StatsService) Overview(ctx context.Context, owner string) (*types.StatsResponse, error) {
	if s.kvClient == nil {
		return s.compute(ctx, owner)
	}

	c := cache.NewCache(s.kvClient)

	resp, err := cache.GetOrSet(ctx, c, statsCacheKey(owner), func() (types.StatsResponse, error) {
		r, cerr := s.compute(ctx, owner)
		if cerr != nil {
			return types.StatsResponse{}, cerr
		}

		return *r, nil
	}, statsCacheTTL)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// Refresh 重算并回填缓存，供定时任务调用.
func (s *StatsService) Refresh(ctx context.Context, owner string) error {
	resp, err := s.compute(ctx, owner)
	if err != nil {
		return err
	}

	if s.kvClient == nil {
		return nil
	}

	c := cache.NewCache(s.kvClient)

	return cache.Set(ctx, c, statsCacheKey(owner), *resp, statsCacheTTL)
}

func (s *StatsService) compute(ctx context.Context, owner string) (*types.StatsResponse, error) {
	summary, err := s.summary(ctx, owner)
	if err != nil {
		return nil, err
	}

	byType, err := s.byType(ctx, owner)
	if err != nil {
		return nil, err
	}

	return &types.StatsResponse{Summary: summary, ByType: byType}, nil
}

// summary 一次聚合查询计算数量/总大小/分享数，避免多次往返.
func (s *StatsService) summary(ctx context.Context, owner string) (types.StatsSummary, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	var agg struct {
		Cnt    int64 `gorm:"column:cnt"`
		Sum    int64 `gorm:"column:sum"`
		Shared int64 `gorm:"column:shared"`
	}

	// SQLite/MySQL 兼容处理：使用 COALESCE 避免 NULL
	selectExpr := "COUNT(*) AS cnt, COALESCE(SUM(size),0) AS sum, " +
		"COALESCE(SUM(CASE WHEN share_token <> '' THEN 1 ELSE 0 END),0) AS shared"

	if err := dbx.Model(&model.FileRecord{}).
		Select(selectExpr).
		Where("owner = ?", owner).
		Scan(&agg).Error; err != nil {
		return types.StatsSummary{}, fmt.Errorf("aggregate summary: %w", err)
	}

	return types.StatsSummary{
		TotalFiles:  agg.Cnt,
		TotalSize:   agg.Sum,
		SharedFiles: agg.Shared,
	}, nil
}

// byType 按 content_type 一级类型（如 image、video、application）聚合.
// SQL 只按原始 content_type 分组，前缀截取在 Go 侧完成，
// 避免方言差异（INSTR/STRPOS/SUBSTRING_INDEX 各后端拼法不同）.
func (s *StatsService) byType(ctx context.Context, owner string) ([]types.StatsTypeItem, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	rows := []struct {
		CT  string `gorm:"column:ct"`
		Cnt int64  `gorm:"column:cnt"`
		Sum int64  `gorm:"column:sum"`
	}{}

	err := dbx.Model(&model.FileRecord{}).
		Select("content_type as ct, COUNT(*) as cnt, COALESCE(SUM(size),0) as sum").
		Where("owner = ?", owner).
		Group("content_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate by type: %w", err)
	}

	merged := make(map[string]*types.StatsTypeItem, len(rows))
	for _, r := range rows {
		t := topLevelType(r.CT)

		item, ok := merged[t]
		if !ok {
			item = &types.StatsTypeItem{Type: t}
			merged[t] = item
		}

		item.Count += r.Cnt
		item.Size += r.Sum
	}

	out := make([]types.StatsTypeItem, 0, len(merged))
	for _, item := range merged {
		out = append(out, *item)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}

		return out[i].Type < out[j].Type
	})

	return out, nil
}

// topLevelType 取 MIME 主类型，空值归类 unknown.
func topLevelType(contentType string) string {
	top, _, found := strings.Cut(contentType, "/")
	if !found {
		top = contentType
	}

	if top == "" {
		return "unknown"
	}

	return top
}
