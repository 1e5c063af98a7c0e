package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobStatsRefresh = "stats.refresh"
	JobOrphanAudit  = "audit.orphan_blobs"
)

// Cron 表达式.
const (
	// CronStatsRefresh 每 5 分钟刷新一次统计缓存.
	CronStatsRefresh = "*/5 * * * *"
	// CronOrphanAudit 每天 03:30 巡检孤儿对象（低峰期，全桶遍历）.
	CronOrphanAudit = "30 3 * * *"
)
