// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/yeisme/dropvault/pkg/configs"
	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/storage"
	"github.com/yeisme/dropvault/pkg/log"
	"github.com/yeisme/dropvault/pkg/metrics"
	"github.com/yeisme/dropvault/pkg/queue"
	"github.com/yeisme/dropvault/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 每 5 分钟刷新各请求方的统计缓存
//   - 每天 03:30 巡检桶内孤儿对象（有对象无元数据行）
//
// 巡检只观测不清理：上传两阶段写的失败侧留下的对象由运维处置.
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	_ = sched.AddCron(JobStatsRefresh, CronStatsRefresh, func(ctx context.Context) {
		runStatsRefresh(ctx, mgr)
	}, baseCtx)

	_ = sched.AddCron(JobOrphanAudit, CronOrphanAudit, func(ctx context.Context) {
		runOrphanAudit(ctx, mgr)
	}, baseCtx)

	return nil
}

// runStatsRefresh 为所有出现过文件的请求方重算统计并回填缓存.
func runStatsRefresh(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobStatsRefresh).Logger()

	owners, err := listAllOwners(ctx, mgr)
	if err != nil {
		l.Error().Err(err).Msg("list owners failed")
		return
	}

	svc := service.NewStatsService(ctx)

	for _, owner := range owners {
		if e := svc.Refresh(ctx, owner); e != nil {
			l.Error().Err(e).Str("owner", owner).Msg("stats refresh failed")
		}
	}
}

// runOrphanAudit 全桶遍历，找出没有元数据行的对象.
// 只上报指标、日志与事件，绝不删除对象.
func runOrphanAudit(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobOrphanAudit).Logger()

	s3c := mgr.GetS3Client()

	dbc := mgr.GetDBClient()
	if s3c == nil || dbc == nil {
		l.Error().Msg("storage clients not initialized")
		return
	}

	bucket := configs.GetConfig().S3.BucketName

	known, err := listKnownKeys(ctx, mgr)
	if err != nil {
		l.Error().Err(err).Msg("list known storage keys failed")
		return
	}

	var orphans int64

	for obj := range s3c.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			l.Error().Err(obj.Err).Msg("bucket listing aborted")
			return
		}

		if _, ok := known[obj.Key]; ok {
			continue
		}

		orphans++
		l.Warn().Str("object_key", obj.Key).Int64("size", obj.Size).Msg("orphan blob found")
		publishOrphan(ctx, mgr, bucket, &obj)
	}

	metrics.OrphanBlobsGauge.Set(float64(orphans))

	if orphans > 0 {
		l.Warn().Int64("orphans", orphans).Str("bucket", bucket).Msg("orphan audit finished")
	} else {
		l.Info().Str("bucket", bucket).Msg("orphan audit clean")
	}
}

// publishOrphan 发布 dv.audit.orphan.found 事件，失败只告警.
func publishOrphan(ctx context.Context, mgr *storage.Manager, bucket string, obj *minio.ObjectInfo) {
	mqc := mgr.GetMQClient()
	if mqc == nil {
		return
	}

	payload := queue.OrphanFoundPayload{
		Object: queue.ObjectRef{
			Bucket:    bucket,
			ObjectKey: obj.Key,
			ETag:      obj.ETag,
			Size:      obj.Size,
		},
		FoundAt: time.Now().UTC(),
	}

	msg, err := queue.NewWatermillMessage(queue.TopicAuditOrphanFound, payload, queue.WithProducer("dropvault-audit"))
	if err == nil {
		err = mqc.Publish(ctx, queue.TopicAuditOrphanFound, msg)
	}

	if err != nil {
		log.Logger().Warn().Err(err).Str("object_key", obj.Key).Msg("publish orphan.found failed")
	}
}

// listAllOwners 查询 DB 中存在文件记录的所有请求方.
func listAllOwners(ctx context.Context, mgr *storage.Manager) ([]string, error) {
	dbc := mgr.GetDBClient()
	if dbc == nil || dbc.GetDB() == nil {
		return nil, fmt.Errorf("db not initialized")
	}

	dbx := dbc.GetDB().WithContext(ctx)

	var owners []string
	if err := dbx.Model(&model.FileRecord{}).Distinct().Pluck("owner", &owners).Error; err != nil {
		return nil, err
	}

	return owners, nil
}

// listKnownKeys 取全部元数据行的对象键集合.
func listKnownKeys(ctx context.Context, mgr *storage.Manager) (map[string]struct{}, error) {
	dbx := mgr.GetDBClient().GetDB().WithContext(ctx)

	var keys []string
	if err := dbx.Model(&model.FileRecord{}).Pluck("storage_key", &keys).Error; err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}

	return set, nil
}
