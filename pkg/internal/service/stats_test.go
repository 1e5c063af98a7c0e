package service

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/dropvault/pkg/internal/model"
)

func newTestStatsService(t *testing.T) *StatsService {
	t.Helper()

	fs, _ := newTestFileService(t)

	return &StatsService{fs}
}

func seedStatsRows(t *testing.T, s *StatsService) {
	t.Helper()

	now := time.Now().UTC()
	rows := []model.FileRecord{
		{Owner: "alice", StorageKey: "s1", OriginalName: "a.jpg", Size: 100, ContentType: "image/jpeg", UploadDate: now},
		{Owner: "alice", StorageKey: "s2", OriginalName: "b.png", Size: 200, ContentType: "image/png", UploadDate: now},
		{Owner: "alice", StorageKey: "s3", OriginalName: "c.pdf", Size: 300, ContentType: "application/pdf", UploadDate: now, ShareToken: "tok-stats-1"},
		{Owner: "alice", StorageKey: "s4", OriginalName: "d", Size: 50, ContentType: "", UploadDate: now},
		{Owner: "bob", StorageKey: "s5", OriginalName: "e.mp4", Size: 9000, ContentType: "video/mp4", UploadDate: now},
	}

	if err := s.dbClient.GetDB().Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestOverviewSummary(t *testing.T) {
	s := newTestStatsService(t)
	seedStatsRows(t, s)

	resp, err := s.Overview(context.Background(), "alice")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	sum := resp.Summary
	if sum.TotalFiles != 4 || sum.TotalSize != 650 || sum.SharedFiles != 1 {
		t.Fatalf("summary: %+v", sum)
	}
}

func TestOverviewByType(t *testing.T) {
	s := newTestStatsService(t)
	seedStatsRows(t, s)

	resp, err := s.Overview(context.Background(), "alice")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	byType := make(map[string]int64, len(resp.ByType))
	for _, item := range resp.ByType {
		byType[item.Type] = item.Count
	}

	if byType["image"] != 2 || byType["application"] != 1 || byType["unknown"] != 1 {
		t.Fatalf("by type: %+v", resp.ByType)
	}
}

func TestOverviewEmptyOwner(t *testing.T) {
	s := newTestStatsService(t)
	seedStatsRows(t, s)

	// 匿名池使用空 owner，不得混入具名用户的数据
	resp, err := s.Overview(context.Background(), "")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	if resp.Summary.TotalFiles != 0 || resp.Summary.TotalSize != 0 {
		t.Fatalf("anonymous pool should be empty: %+v", resp.Summary)
	}
}

func TestOverviewUsesCache(t *testing.T) {
	s := newTestStatsService(t)
	withMemoryKV(t, s.FileService)
	seedStatsRows(t, s)

	first, err := s.Overview(context.Background(), "alice")
	if err != nil {
		t.Fatalf("first overview: %v", err)
	}

	// 缓存未过期时跳过重算，新增的行不可见
	extra := model.FileRecord{Owner: "alice", StorageKey: "s9", OriginalName: "late.txt", Size: 1, ContentType: "text/plain", UploadDate: time.Now().UTC()}
	if err := s.dbClient.GetDB().Create(&extra).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	second, err := s.Overview(context.Background(), "alice")
	if err != nil {
		t.Fatalf("second overview: %v", err)
	}

	if second.Summary.TotalFiles != first.Summary.TotalFiles {
		t.Fatalf("expected cached summary, got %+v", second.Summary)
	}

	// Refresh 重算后新行可见
	if err := s.Refresh(context.Background(), "alice"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	third, err := s.Overview(context.Background(), "alice")
	if err != nil {
		t.Fatalf("third overview: %v", err)
	}

	if third.Summary.TotalFiles != first.Summary.TotalFiles+1 {
		t.Fatalf("refresh should pick up new row: %+v", third.Summary)
	}
}

func TestTopLevelType(t *testing.T) {
	cases := map[string]string{
		"image/jpeg":      "image",
		"application/pdf": "application",
		"video/mp4":       "video",
		"":                "unknown",
		"/png":            "unknown",
		"plaintext":       "plaintext",
	}

	for in, want := range cases {
		if got := topLevelType(in); got != want {
			t.Errorf("topLevelType(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestOverviewByTypeOrdersByCount(t *testing.T) {
	s := newTestStatsService(t)
	seedStatsRows(t, s)

	resp, err := s.Overview(context.Background(), "alice")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	if len(resp.ByType) == 0 || resp.ByType[0].Type != "image" || resp.ByType[0].Size != 300 {
		t.Fatalf("largest group should lead: %+v", resp.ByType)
	}

	for i := 1; i < len(resp.ByType); i++ {
		if resp.ByType[i].Count > resp.ByType[i-1].Count {
			t.Fatalf("counts not descending: %+v", resp.ByType)
		}
	}
}
