package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yeisme/dropvault/pkg/configs"
	"github.com/yeisme/dropvault/pkg/internal/model"
)

func newTestShareService(t *testing.T) (*ShareService, *fakeBlob) {
	t.Helper()

	fs, blob := newTestFileService(t)

	return &ShareService{fs}, blob
}

func TestGenerateShareToken(t *testing.T) {
	token, err := generateShareToken(22)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(token) != 22 {
		t.Fatalf("length=%d, want 22", len(token))
	}

	for _, r := range token {
		if !strings.ContainsRune(shareTokenAlphabet, r) {
			t.Fatalf("token %q contains %q outside alphabet", token, r)
		}
	}

	other, err := generateShareToken(22)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if token == other {
		t.Fatal("consecutive tokens must differ")
	}
}

func TestGenerateShareTokenDefaultLength(t *testing.T) {
	token, err := generateShareToken(0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(token) != configs.DefaultShareTokenLength {
		t.Fatalf("length=%d, want %d", len(token), configs.DefaultShareTokenLength)
	}
}

func TestUploadIssuesShareToken(t *testing.T) {
	ss, _ := newTestShareService(t)
	ctx := context.Background()

	id := uploadText(t, ss.FileService, "alice", "fresh.txt", "payload")

	var rec model.FileRecord
	if err := ss.dbClient.GetDB().First(&rec, id).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}

	if len(rec.ShareToken) != configs.DefaultShareTokenLength {
		t.Fatalf("token %q length=%d, want %d", rec.ShareToken, len(rec.ShareToken), configs.DefaultShareTokenLength)
	}

	for _, r := range rec.ShareToken {
		if !strings.ContainsRune(shareTokenAlphabet, r) {
			t.Fatalf("token %q contains %q outside alphabet", rec.ShareToken, r)
		}
	}

	// 上传后无需 CreateShare 即可解析
	resolved, err := ss.Resolve(ctx, rec.ShareToken)
	if err != nil {
		t.Fatalf("resolve fresh upload: %v", err)
	}

	if resolved.File.ID != id {
		t.Fatalf("resolved wrong file: %+v", resolved.File)
	}
}

func TestCreateShareIsIdempotent(t *testing.T) {
	ss, _ := newTestShareService(t)
	ctx := context.Background()

	id := uploadText(t, ss.FileService, "alice", "shared.txt", "payload")

	first, err := ss.CreateShare(ctx, "alice", id)
	if err != nil {
		t.Fatalf("create share: %v", err)
	}

	// 令牌随上传生成，CreateShare 只是读回
	if first.Created || first.Token == "" {
		t.Fatalf("first call must return the upload-issued token uncreated: %+v", first)
	}

	second, err := ss.CreateShare(ctx, "alice", id)
	if err != nil {
		t.Fatalf("repeat create: %v", err)
	}

	if second.Created || second.Token != first.Token {
		t.Fatalf("repeat must return the same token uncreated: %+v", second)
	}

	if !strings.Contains(first.URL, "?share="+first.Token) {
		t.Fatalf("share url %q should embed the token", first.URL)
	}
}

func TestCreateShareBackfillsMissingToken(t *testing.T) {
	ss, _ := newTestShareService(t)
	ctx := context.Background()

	// 历史行可能没有令牌
	rec := model.FileRecord{
		Owner:        "alice",
		StorageKey:   "legacy_000000000000.txt",
		OriginalName: "legacy.txt",
		Bucket:       ss.bucket,
	}
	if err := ss.dbClient.GetDB().Create(&rec).Error; err != nil {
		t.Fatalf("seed legacy record: %v", err)
	}

	resp, err := ss.CreateShare(ctx, "alice", rec.ID)
	if err != nil {
		t.Fatalf("create share: %v", err)
	}

	if !resp.Created || resp.Token == "" {
		t.Fatalf("token should be backfilled: %+v", resp)
	}
}

func TestCreateShareEnforcesOwnership(t *testing.T) {
	ss, _ := newTestShareService(t)
	ctx := context.Background()

	id := uploadText(t, ss.FileService, "alice", "mine.txt", "x")

	if _, err := ss.CreateShare(ctx, "bob", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign share: got %v, want ErrNotFound", err)
	}
}

func TestResolveIsOwnerless(t *testing.T) {
	ss, _ := newTestShareService(t)
	ctx := context.Background()

	id := uploadText(t, ss.FileService, "alice", "public.txt", "anyone")

	share, err := ss.CreateShare(ctx, "alice", id)
	if err != nil {
		t.Fatalf("create share: %v", err)
	}

	// 解析不带任何身份信息
	resolved, err := ss.Resolve(ctx, share.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if resolved.File.OriginalName != "public.txt" || resolved.File.ID != id {
		t.Fatalf("resolved wrong file: %+v", resolved.File)
	}
}

func TestResolveUnknownTokenNotFound(t *testing.T) {
	ss, _ := newTestShareService(t)

	for _, token := range []string{"", "nope-not-a-token-at-all"} {
		if _, err := ss.Resolve(context.Background(), token); !errors.Is(err, ErrNotFound) {
			t.Fatalf("token %q: got %v, want ErrNotFound", token, err)
		}
	}
}

func TestResolveServesFromCache(t *testing.T) {
	ss, _ := newTestShareService(t)
	kvc := withMemoryKV(t, ss.FileService)
	ctx := context.Background()

	id := uploadText(t, ss.FileService, "alice", "cached.txt", "warm")

	share, err := ss.CreateShare(ctx, "alice", id)
	if err != nil {
		t.Fatalf("create share: %v", err)
	}

	if _, err := ss.Resolve(ctx, share.Token); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	ok, err := kvc.Exists(ctx, shareCacheKey(share.Token))
	if err != nil || !ok {
		t.Fatalf("cache entry missing after resolve: ok=%v err=%v", ok, err)
	}

	// 绕过服务直接清表：缓存命中仍可解析
	if err := ss.dbClient.GetDB().Where("1 = 1").Delete(&model.FileRecord{}).Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}

	resolved, err := ss.Resolve(ctx, share.Token)
	if err != nil {
		t.Fatalf("cached resolve: %v", err)
	}

	if resolved.File.OriginalName != "cached.txt" {
		t.Fatalf("cache served wrong file: %+v", resolved.File)
	}
}

func TestResolveCorruptCacheEntryFallsBackToDB(t *testing.T) {
	ss, _ := newTestShareService(t)
	kvc := withMemoryKV(t, ss.FileService)
	ctx := context.Background()

	id := uploadText(t, ss.FileService, "alice", "garbled.txt", "intact")

	var rec model.FileRecord
	if err := ss.dbClient.GetDB().First(&rec, id).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}

	// 缓存里是解不开的垃圾时直接回源
	if err := kvc.Set(ctx, shareCacheKey(rec.ShareToken), []byte("{not json"), shareCacheTTL); err != nil {
		t.Fatalf("poison cache: %v", err)
	}

	resolved, err := ss.Resolve(ctx, rec.ShareToken)
	if err != nil {
		t.Fatalf("resolve with corrupt cache: %v", err)
	}

	if resolved.File.ID != id {
		t.Fatalf("resolved wrong file: %+v", resolved.File)
	}
}

func TestDeleteInvalidatesShareCache(t *testing.T) {
	ss, _ := newTestShareService(t)
	withMemoryKV(t, ss.FileService)
	ctx := context.Background()

	id := uploadText(t, ss.FileService, "alice", "revoked.txt", "gone soon")

	share, err := ss.CreateShare(ctx, "alice", id)
	if err != nil {
		t.Fatalf("create share: %v", err)
	}

	if _, err := ss.Resolve(ctx, share.Token); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	if err := ss.Delete(ctx, "alice", id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := ss.Resolve(ctx, share.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("revoked token should be gone, got %v", err)
	}
}

func TestOpenSharedStreamsContent(t *testing.T) {
	ss, _ := newTestShareService(t)
	ctx := context.Background()

	id := uploadText(t, ss.FileService, "alice", "dl.txt", "download me")

	share, err := ss.CreateShare(ctx, "alice", id)
	if err != nil {
		t.Fatalf("create share: %v", err)
	}

	rd, info, err := ss.OpenShared(ctx, share.Token)
	if err != nil {
		t.Fatalf("open shared: %v", err)
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(data) != "download me" || info.OriginalName != "dl.txt" {
		t.Fatalf("content=%q name=%q", data, info.OriginalName)
	}
}

func TestOpenSharedUsesStoredBucket(t *testing.T) {
	ss, _ := newTestShareService(t)
	ctx := context.Background()

	id := uploadText(t, ss.FileService, "alice", "moved.txt", "still here")

	var rec model.FileRecord
	if err := ss.dbClient.GetDB().First(&rec, id).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}

	// 改桶配置后，历史分享仍按入库时的桶读取
	ss.bucket = "relocated-bucket"

	rd, info, err := ss.OpenShared(ctx, rec.ShareToken)
	if err != nil {
		t.Fatalf("open shared after bucket change: %v", err)
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(data) != "still here" || info.ID != id {
		t.Fatalf("content=%q id=%d", data, info.ID)
	}
}
