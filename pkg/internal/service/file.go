package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/yeisme/dropvault/pkg/configs"
	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/storage/db"
	"github.com/yeisme/dropvault/pkg/internal/storage/kv"
	"github.com/yeisme/dropvault/pkg/internal/storage/mq"
	"github.com/yeisme/dropvault/pkg/internal/storage/s3"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

const (
	// DefaultPresignedOpTimeout 默认预签名操作超时时间.
	DefaultPresignedOpTimeout = 15 * time.Minute
	// storageKeyRandBytes 对象键随机部分的字节数，hex 后为 12 个字符.
	storageKeyRandBytes = 6
)

// blobStore 抽象 FileService 依赖的对象存储操作，便于用假实现测试.
// *minio.Client 经 minioBlobStore 适配后满足该接口.
type blobStore interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucket, key string, expiry time.Duration, params url.Values) (*url.URL, error)
}

// minioBlobStore 将 *s3.Client 适配为 blobStore.
type minioBlobStore struct {
	cli *s3.Client
}

func (m *minioBlobStore) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return m.cli.PutObject(ctx, bucket, key, r, size, opts)
}

func (m *minioBlobStore) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return m.cli.GetObject(ctx, bucket, key, opts)
}

func (m *minioBlobStore) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return m.cli.StatObject(ctx, bucket, key, opts)
}

func (m *minioBlobStore) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	return m.cli.RemoveObject(ctx, bucket, key, opts)
}

func (m *minioBlobStore) PresignedGetObject(ctx context.Context, bucket, key string, expiry time.Duration, params url.Values) (*url.URL, error) {
	return m.cli.PresignedGetObject(ctx, bucket, key, expiry, params)
}

// FileService 文件上传、列表、下载与删除的核心协调器.
type FileService struct {
	blob     blobStore
	dbClient *db.Client
	kvClient *kv.Client
	mqClient *mq.Client
	bucket   string
}

// NewFileService 从上下文取出存储客户端构造 FileService.
func NewFileService(c context.Context) *FileService {
	var blob blobStore
	if s3c := ctxPkg.GetS3Client(c); s3c != nil {
		blob = &minioBlobStore{cli: s3c}
	}

	return &FileService{
		blob:     blob,
		dbClient: ctxPkg.GetDBClient(c),
		kvClient: ctxPkg.GetKVClient(c),
		mqClient: ctxPkg.GetMQClient(c),
		bucket:   configs.GetConfig().S3.BucketName,
	}
}

// buildStorageKey 构建对象键：{unix毫秒}_{12位随机hex}{扩展名}.
// 时间戳前缀保证大体有序，随机后缀消除并发上传的碰撞.
func buildStorageKey(fileName string, now time.Time) (string, error) {
	buf := make([]byte, storageKeyRandBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate storage key: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))

	return fmt.Sprintf("%d_%s%s", now.UnixMilli(), hex.EncodeToString(buf), ext), nil
}

// buildDownloadURL 基于公共端点与桶拼出直链下载地址.
func buildDownloadURL(storageKey string) string {
	cfg := configs.GetConfig().S3
	return fmt.Sprintf("%s/%s/%s", cfg.GetEndpointURL(), cfg.BucketName, storageKey)
}

// buildShareURL 基于配置的公共基址拼出分享链接.
func buildShareURL(token string) string {
	base := strings.TrimRight(configs.GetConfig().Share.PublicBaseURL, "/")
	return fmt.Sprintf("%s/?share=%s", base, token)
}

// toFileInfo 将数据库记录转换为对外 DTO.withShare 控制是否暴露分享令牌.
func toFileInfo(rec *model.FileRecord, withShare bool) types.FileInfo {
	info := types.FileInfo{
		ID:           rec.ID,
		OriginalName: rec.OriginalName,
		StorageKey:   rec.StorageKey,
		Size:         rec.Size,
		ContentType:  rec.ContentType,
		UploadDate:   rec.UploadDate,
		DownloadURL:  rec.DownloadURL,
	}

	if withShare && rec.ShareToken != "" {
		info.ShareToken = rec.ShareToken
		info.ShareURL = buildShareURL(rec.ShareToken)
	}

	return info
}
