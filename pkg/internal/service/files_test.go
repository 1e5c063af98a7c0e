package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/yeisme/dropvault/pkg/configs"
	"github.com/yeisme/dropvault/pkg/internal/model"
)

var storageKeyPattern = regexp.MustCompile(`^\d{13}_[0-9a-f]{12}(\.[a-z0-9.]+)?$`)

func TestBuildStorageKey(t *testing.T) {
	now := time.Now()

	key, err := buildStorageKey("Report.PDF", now)
	if err != nil {
		t.Fatalf("buildStorageKey: %v", err)
	}

	if !storageKeyPattern.MatchString(key) {
		t.Fatalf("key %q does not match expected shape", key)
	}

	if !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("key %q should keep lowercased extension", key)
	}

	other, err := buildStorageKey("Report.PDF", now)
	if err != nil {
		t.Fatalf("buildStorageKey: %v", err)
	}

	if key == other {
		t.Fatal("two keys for same name and instant must differ")
	}
}

func TestUploadStoresBlobAndRow(t *testing.T) {
	fs, blob := newTestFileService(t)
	ctx := context.Background()

	resp := fs.Upload(ctx, "alice", []UploadInput{{
		FileName:    "notes.txt",
		Size:        5,
		ContentType: "text/plain",
		Reader:      bytes.NewReader([]byte("hello")),
	}})

	if resp.Stored != 1 || resp.Failed != 0 {
		t.Fatalf("stored=%d failed=%d, want 1/0", resp.Stored, resp.Failed)
	}

	info := resp.Results[0].File
	if info == nil {
		t.Fatal("expected file info on success")
	}

	if !storageKeyPattern.MatchString(info.StorageKey) {
		t.Fatalf("storage key %q has unexpected shape", info.StorageKey)
	}

	if blob.count() != 1 {
		t.Fatalf("expected 1 object in store, got %d", blob.count())
	}

	var rec model.FileRecord
	if err := fs.dbClient.GetDB().First(&rec, info.ID).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}

	if rec.Owner != "alice" || rec.OriginalName != "notes.txt" || rec.Size != 5 {
		t.Fatalf("unexpected row: %+v", rec)
	}

	if rec.DownloadURL == "" {
		t.Fatal("download url should be populated")
	}
}

func TestUploadValidation(t *testing.T) {
	fs, blob := newTestFileService(t)
	configs.GetConfig().Upload.MaxSizeBytes = 10
	configs.GetConfig().Upload.DeniedTypes = []string{"application/x-msdownload"}

	cases := []struct {
		name string
		in   UploadInput
	}{
		{"empty name", UploadInput{FileName: "", Size: 1, Reader: bytes.NewReader([]byte("x"))}},
		{"oversize", UploadInput{FileName: "big.bin", Size: 11, Reader: bytes.NewReader(make([]byte, 11))}},
		{"denied type", UploadInput{FileName: "tool.exe", Size: 3, ContentType: "application/x-msdownload", Reader: bytes.NewReader([]byte("bin"))}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := fs.Upload(context.Background(), "alice", []UploadInput{tc.in})
			if resp.Failed != 1 {
				t.Fatalf("expected failure, got %+v", resp.Results)
			}

			if blob.count() != 0 {
				t.Fatal("rejected upload must not touch the object store")
			}
		})
	}
}

func TestUploadPartialBatch(t *testing.T) {
	fs, _ := newTestFileService(t)
	configs.GetConfig().Upload.MaxSizeBytes = 10

	resp := fs.Upload(context.Background(), "alice", []UploadInput{
		{FileName: "ok.txt", Size: 2, ContentType: "text/plain", Reader: bytes.NewReader([]byte("ok"))},
		{FileName: "big.bin", Size: 100, Reader: bytes.NewReader(make([]byte, 100))},
		{FileName: "also-ok.txt", Size: 3, ContentType: "text/plain", Reader: bytes.NewReader([]byte("yes"))},
	})

	if resp.Stored != 2 || resp.Failed != 1 {
		t.Fatalf("stored=%d failed=%d, want 2/1", resp.Stored, resp.Failed)
	}

	if resp.Results[1].Success || resp.Results[1].Error == "" {
		t.Fatalf("middle result should carry the error: %+v", resp.Results[1])
	}
}

func TestUploadInsertFailureLeavesOrphan(t *testing.T) {
	fs, blob := newTestFileService(t)

	// 元数据表不可写时对象已入桶，保留为孤儿
	if err := fs.dbClient.GetDB().Migrator().DropTable(&model.FileRecord{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	resp := fs.Upload(context.Background(), "alice", []UploadInput{{
		FileName:    "orphan.txt",
		Size:        4,
		ContentType: "text/plain",
		Reader:      bytes.NewReader([]byte("data")),
	}})

	if resp.Failed != 1 {
		t.Fatalf("expected failure, got %+v", resp)
	}

	if blob.count() != 1 {
		t.Fatalf("blob should remain as orphan, store has %d objects", blob.count())
	}
}

func TestListReturnsOwnerSnapshotNewestFirst(t *testing.T) {
	fs, _ := newTestFileService(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	seed := []model.FileRecord{
		{Owner: "alice", StorageKey: "k1", OriginalName: "old.txt", UploadDate: base.Add(-2 * time.Hour), Bucket: fs.bucket},
		{Owner: "alice", StorageKey: "k2", OriginalName: "new.txt", UploadDate: base, Bucket: fs.bucket},
		{Owner: "alice", StorageKey: "k3", OriginalName: "mid.txt", UploadDate: base.Add(-time.Hour), Bucket: fs.bucket},
		{Owner: "bob", StorageKey: "k4", OriginalName: "other.txt", UploadDate: base, Bucket: fs.bucket},
	}
	if err := fs.dbClient.GetDB().Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, err := fs.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if resp.Total != 3 {
		t.Fatalf("total=%d, want 3", resp.Total)
	}

	got := []string{resp.Files[0].OriginalName, resp.Files[1].OriginalName, resp.Files[2].OriginalName}
	want := []string{"new.txt", "mid.txt", "old.txt"}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order: got %v, want %v", got, want)
		}
	}
}

func TestDeleteRemovesBlobAndRow(t *testing.T) {
	fs, blob := newTestFileService(t)
	ctx := context.Background()

	id := uploadText(t, fs, "alice", "gone.txt", "bye")

	if err := fs.Delete(ctx, "alice", id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if blob.count() != 0 {
		t.Fatal("blob should be removed")
	}

	var count int64
	fs.dbClient.GetDB().Model(&model.FileRecord{}).Count(&count)

	if count != 0 {
		t.Fatalf("row should be removed, count=%d", count)
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	fs, blob := newTestFileService(t)
	ctx := context.Background()

	id := uploadText(t, fs, "alice", "mine.txt", "secret")

	if err := fs.Delete(ctx, "bob", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: got %v, want ErrNotFound", err)
	}

	if blob.count() != 1 {
		t.Fatal("foreign delete must not touch the blob")
	}
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
	fs, _ := newTestFileService(t)
	ctx := context.Background()

	id := uploadText(t, fs, "alice", "once.txt", "x")

	if err := fs.Delete(ctx, "alice", id); err != nil {
		t.Fatalf("first delete: %v", err)
	}

	if err := fs.Delete(ctx, "alice", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestDeleteBlobFailureKeepsRow(t *testing.T) {
	fs, blob := newTestFileService(t)
	ctx := context.Background()

	id := uploadText(t, fs, "alice", "stuck.txt", "x")
	blob.failRemove = true

	if err := fs.Delete(ctx, "alice", id); err == nil {
		t.Fatal("expected delete error")
	}

	var count int64
	fs.dbClient.GetDB().Model(&model.FileRecord{}).Count(&count)

	if count != 1 {
		t.Fatal("row must survive a failed blob removal")
	}
}

func TestBatchDeleteAggregatesResults(t *testing.T) {
	fs, _ := newTestFileService(t)
	ctx := context.Background()

	ids := []uint{
		uploadText(t, fs, "alice", "a.txt", "a"),
		uploadText(t, fs, "alice", "b.txt", "b"),
	}
	ids = append(ids, 9999) // 不存在的 id

	resp := fs.BatchDelete(ctx, "alice", ids)

	if resp.Deleted != 2 || resp.Failed != 1 {
		t.Fatalf("deleted=%d failed=%d, want 2/1", resp.Deleted, resp.Failed)
	}

	if resp.Results[2].Deleted || resp.Results[2].Error == "" {
		t.Fatalf("missing id should fail in place: %+v", resp.Results[2])
	}
}

func TestClearAllOnlyTouchesOwner(t *testing.T) {
	fs, _ := newTestFileService(t)
	ctx := context.Background()

	uploadText(t, fs, "alice", "a1.txt", "1")
	uploadText(t, fs, "alice", "a2.txt", "2")
	uploadText(t, fs, "bob", "b1.txt", "3")

	resp, err := fs.ClearAll(ctx, "alice")
	if err != nil {
		t.Fatalf("clear all: %v", err)
	}

	if resp.Deleted != 2 || resp.Failed != 0 {
		t.Fatalf("deleted=%d failed=%d, want 2/0", resp.Deleted, resp.Failed)
	}

	left, err := fs.List(ctx, "bob")
	if err != nil {
		t.Fatalf("list bob: %v", err)
	}

	if left.Total != 1 {
		t.Fatalf("bob should keep his file, total=%d", left.Total)
	}
}

func TestOpenFileStreamsContent(t *testing.T) {
	fs, _ := newTestFileService(t)
	ctx := context.Background()

	id := uploadText(t, fs, "alice", "read.txt", "stream me")

	rd, rec, err := fs.OpenFile(ctx, "alice", id)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(data) != "stream me" {
		t.Fatalf("content %q", data)
	}

	if rec.OriginalName != "read.txt" {
		t.Fatalf("record name %q", rec.OriginalName)
	}
}

func TestPresignedGetURLDefaultExpiry(t *testing.T) {
	fs, _ := newTestFileService(t)
	ctx := context.Background()

	id := uploadText(t, fs, "alice", "link.txt", "x")

	resp, err := fs.PresignedGetURL(ctx, "alice", id, 0)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	if resp.ExpiresIn != int(DefaultPresignedOpTimeout.Seconds()) {
		t.Fatalf("expires_in=%d, want %d", resp.ExpiresIn, int(DefaultPresignedOpTimeout.Seconds()))
	}

	if !strings.Contains(resp.URL, fs.bucket) {
		t.Fatalf("url %q should reference the bucket", resp.URL)
	}
}
