package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/yeisme/dropvault/pkg/cache"
	"github.com/yeisme/dropvault/pkg/configs"
	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
	"github.com/yeisme/dropvault/pkg/metrics"
	"github.com/yeisme/dropvault/pkg/queue"
	nlog "github.com/yeisme/dropvault/pkg/log"
)

// ShareService 分享令牌的发放与解析.
type ShareService struct{ *FileService }

// NewShareService 构造 ShareService.
func NewShareService(c context.Context) *ShareService {
	return &ShareService{NewFileService(c)}
}

const (
	// shareTokenAlphabet 令牌字符集，大小写字母加数字共 62 个字符.
	shareTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// shareCacheTTL 分享解析结果的缓存时长.
	shareCacheTTL = 10 * time.Minute
	// maxTokenAttempts 发放令牌时碰撞重试上限.
	maxTokenAttempts = 5
)

// shareCacheKey 令牌到缓存键.
func shareCacheKey(token string) string {
	return "share:" + token
}

// generateShareToken 从密码学安全随机源抽取定长令牌.
// 拒绝采样消除模偏差，保证字符均匀分布.
func generateShareToken(length int) (string, error) {
	if length <= 0 {
		length = configs.DefaultShareTokenLength
	}

	const maxAcceptable = byte(len(shareTokenAlphabet) * (256 / len(shareTokenAlphabet))) // 248

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)

	for len(out) < length {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", fmt.Errorf("generate share token: %w", err)
		}

		for _, b := range buf {
			if b >= maxAcceptable {
				continue
			}

			out = append(out, shareTokenAlphabet[int(b)%len(shareTokenAlphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}

// CreateShare 返回 owner 拥有文件的分享令牌.
// 令牌在上传入库时已生成，常规路径幂等返回 Created 为 false；
// 仅对缺失令牌的历史行补发，令牌一经发放，除删除文件外不变.
func (ss *ShareService) CreateShare(ctx context.Context, owner string, id uint) (*types.CreateShareResponse, error) {
	rec, err := ss.getOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if rec.HasShare() {
		return &types.CreateShareResponse{
			Token:   rec.ShareToken,
			URL:     buildShareURL(rec.ShareToken),
			Created: false,
		}, nil
	}

	token, err := ss.issueToken(ctx)
	if err != nil {
		return nil, err
	}

	if err := ss.dbClient.GetDB().WithContext(ctx).
		Model(&model.FileRecord{}).
		Where("id = ?", rec.ID).
		Update("share_token", token).Error; err != nil {
		return nil, fmt.Errorf("persist share token: %w", err)
	}

	return &types.CreateShareResponse{
		Token:   token,
		URL:     buildShareURL(token),
		Created: true,
	}, nil
}

// issueToken 生成未被占用的令牌，128 位熵下碰撞概率可忽略，检查只是兜底.
func (fs *FileService) issueToken(ctx context.Context) (string, error) {
	length := configs.GetConfig().Share.TokenLength

	for range maxTokenAttempts {
		token, err := generateShareToken(length)
		if err != nil {
			return "", err
		}

		var count int64
		if err := fs.dbClient.GetDB().WithContext(ctx).
			Model(&model.FileRecord{}).
			Where("share_token = ?", token).
			Count(&count).Error; err != nil {
			return "", fmt.Errorf("check token collision: %w", err)
		}

		if count == 0 {
			return token, nil
		}
	}

	return "", fmt.Errorf("share token space exhausted after %d attempts", maxTokenAttempts)
}

// sharedRecord KV 缓存中的分享解析结果.
type sharedRecord struct {
	FileID       uint      `json:"file_id"`
	StorageKey   string    `json:"storage_key"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	UploadDate   time.Time `json:"upload_date"`
	DownloadURL  string    `json:"download_url,omitempty"`
	Bucket       string    `json:"bucket,omitempty"`
}

// Resolve 解析分享令牌，无所有权检查：令牌即能力凭证.
// 未命中缓存时回源数据库；不存在返回 ErrNotFound，与其它错误区分.
func (ss *ShareService) Resolve(ctx context.Context, token string) (*types.SharedFileResponse, error) {
	rec, err := ss.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	return &types.SharedFileResponse{File: rec.fileInfo()}, nil
}

// resolve 令牌到内部记录，集中缓存、指标与事件发布.
func (ss *ShareService) resolve(ctx context.Context, token string) (*sharedRecord, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	cacheHit := false

	rec, err := ss.resolveCached(ctx, token, &cacheHit)
	if err != nil {
		if err == ErrNotFound {
			metrics.ShareResolutionCounter.WithLabelValues("not_found").Inc()
		}

		return nil, err
	}

	metrics.ShareResolutionCounter.WithLabelValues("ok").Inc()
	ss.publishResolved(ctx, token, rec, cacheHit)

	return rec, nil
}

// fileInfo 转为对外 DTO，桶名等内部字段不外露.
func (r *sharedRecord) fileInfo() types.FileInfo {
	return types.FileInfo{
		ID:           r.FileID,
		OriginalName: r.OriginalName,
		StorageKey:   r.StorageKey,
		Size:         r.Size,
		ContentType:  r.ContentType,
		UploadDate:   r.UploadDate,
		DownloadURL:  r.DownloadURL,
	}
}

// resolveCached 带 KV 缓存的解析路径，KV 不可用或缓存读取/解码失败时直接回源.
func (ss *ShareService) resolveCached(ctx context.Context, token string, cacheHit *bool) (*sharedRecord, error) {
	if ss.kvClient == nil {
		return ss.resolveFromDB(ctx, token)
	}

	c := cache.NewCache(ss.kvClient)

	if cached, err := cache.Get[sharedRecord](ctx, c, shareCacheKey(token)); err == nil {
		*cacheHit = true
		return &cached, nil
	}

	rec, err := ss.resolveFromDB(ctx, token)
	if err != nil {
		return nil, err
	}

	if setErr := cache.Set(ctx, c, shareCacheKey(token), *rec, shareCacheTTL); setErr != nil {
		nlog.Logger().Debug().Err(setErr).Msg("share cache store failed")
	}

	return rec, nil
}

// resolveFromDB 数据库中按令牌查找唯一记录.
func (ss *ShareService) resolveFromDB(ctx context.Context, token string) (*sharedRecord, error) {
	var rec model.FileRecord

	res := ss.dbClient.GetDB().WithContext(ctx).
		Where("share_token = ?", token).
		Limit(1).
		Find(&rec)
	if res.Error != nil {
		return nil, fmt.Errorf("resolve share token: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return &sharedRecord{
		FileID:       rec.ID,
		StorageKey:   rec.StorageKey,
		OriginalName: rec.OriginalName,
		Size:         rec.Size,
		ContentType:  rec.ContentType,
		UploadDate:   rec.UploadDate,
		DownloadURL:  rec.DownloadURL,
		Bucket:       rec.Bucket,
	}, nil
}

// OpenShared 打开分享令牌对应的对象用于匿名下载，调用方负责 Close.
// 对象按记录持久化的桶读取，桶配置变更不影响既有分享.
func (ss *ShareService) OpenShared(ctx context.Context, token string) (io.ReadCloser, *types.FileInfo, error) {
	resolved, err := ss.resolve(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	bucket := resolved.Bucket
	if bucket == "" {
		// 旧缓存条目未带桶名
		bucket = ss.bucket
	}

	rec := model.FileRecord{
		StorageKey: resolved.StorageKey,
		Bucket:     bucket,
	}

	rd, err := ss.openBlob(ctx, &rec)
	if err != nil {
		return nil, nil, err
	}

	info := resolved.fileInfo()

	return rd, &info, nil
}

// publishResolved 发布 dv.share.resolved 事件，失败只告警.
func (ss *ShareService) publishResolved(ctx context.Context, token string, rec *sharedRecord, cacheHit bool) {
	if ss.mqClient == nil || !configs.GetConfig().Events.File.ShareResolved {
		return
	}

	payload := queue.ShareResolvedPayload{
		Object: queue.ObjectRef{
			Bucket:    rec.Bucket,
			ObjectKey: rec.StorageKey,
			Size:      rec.Size,
		},
		FileID:   rec.FileID,
		Token:    token,
		CacheHit: cacheHit,
	}

	msg, err := queue.NewWatermillMessage(queue.TopicShareResolved, payload, queue.WithProducer("dropvault"))
	if err == nil {
		err = ss.mqClient.Publish(ctx, queue.TopicShareResolved, msg)
	}

	if err != nil {
		l := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
		l.Warn().Err(err).Msg("publish share.resolved failed")
	}
}
