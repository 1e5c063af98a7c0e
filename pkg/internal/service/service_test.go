package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/dropvault/pkg/configs"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/storage/db"
	"github.com/yeisme/dropvault/pkg/internal/storage/kv"
)

// fakeBlob 内存对象存储，记录调用并可注入失败.
type fakeBlob struct {
	mu      sync.Mutex
	objects map[string][]byte

	failPut    bool
	failRemove bool
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: make(map[string][]byte)}
}

func blobKey(bucket, key string) string {
	return bucket + "/" + key
}

func (f *fakeBlob) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.failPut {
		return minio.UploadInfo{}, fmt.Errorf("put rejected")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}

	f.mu.Lock()
	f.objects[blobKey(bucket, key)] = data
	f.mu.Unlock()

	return minio.UploadInfo{Bucket: bucket, Key: key, ETag: "fake-etag", Size: int64(len(data))}, nil
}

func (f *fakeBlob) GetObject(_ context.Context, bucket, key string, _ minio.GetObjectOptions) (io.ReadCloser, error) {
	f.mu.Lock()
	data, ok := f.objects[blobKey(bucket, key)]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlob) StatObject(_ context.Context, bucket, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	f.mu.Lock()
	data, ok := f.objects[blobKey(bucket, key)]
	f.mu.Unlock()

	if !ok {
		return minio.ObjectInfo{}, fmt.Errorf("object %s not found", key)
	}

	return minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeBlob) RemoveObject(_ context.Context, bucket, key string, _ minio.RemoveObjectOptions) error {
	if f.failRemove {
		return fmt.Errorf("remove rejected")
	}

	f.mu.Lock()
	delete(f.objects, blobKey(bucket, key))
	f.mu.Unlock()

	return nil
}

func (f *fakeBlob) PresignedGetObject(_ context.Context, bucket, key string, expiry time.Duration, _ url.Values) (*url.URL, error) {
	raw := fmt.Sprintf("http://fake-s3/%s/%s?expires=%d", bucket, key, int(expiry.Seconds()))

	return url.Parse(raw)
}

func (f *fakeBlob) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.objects)
}

// newTestDB 每个测试独立的内存 SQLite，单连接避免内存库分裂.
func newTestDB(t *testing.T) *db.Client {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(&model.FileRecord{}, &model.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return &db.Client{DB: gdb}
}

// newTestFileService 使用假对象存储与内存数据库的 FileService.
func newTestFileService(t *testing.T) (*FileService, *fakeBlob) {
	t.Helper()

	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("init config: %v", err)
	}

	blob := newFakeBlob()
	fs := &FileService{
		blob:     blob,
		dbClient: newTestDB(t),
		bucket:   configs.GetConfig().S3.BucketName,
	}

	return fs, blob
}

// withMemoryKV 给服务挂上内存 KV，用于缓存路径测试.
func withMemoryKV(t *testing.T, fs *FileService) *kv.Client {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("new memory kv: %v", err)
	}

	cli := &kv.Client{KVStore: store}
	fs.kvClient = cli

	return cli
}

// uploadText 上传单个文本文件并返回其记录 ID.
func uploadText(t *testing.T, fs *FileService, owner, name, content string) uint {
	t.Helper()

	resp := fs.Upload(context.Background(), owner, []UploadInput{{
		FileName:    name,
		Size:        int64(len(content)),
		ContentType: "text/plain",
		Reader:      bytes.NewReader([]byte(content)),
	}})
	if resp.Stored != 1 {
		t.Fatalf("upload %s: stored=%d failed=%d results=%+v", name, resp.Stored, resp.Failed, resp.Results)
	}

	return resp.Results[0].File.ID
}
