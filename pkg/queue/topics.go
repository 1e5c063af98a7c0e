// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：dv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：file(文件生命周期)、share(分享链接)、audit(巡检)
// 动作：stored/deleted/resolved 等过去式表示已发生的事实

const (
	// 文件生命周期领域.
	TopicFileStored  = "dv.file.stored"  // 文件已写入对象存储且元数据已落库
	TopicFileDeleted = "dv.file.deleted" // 文件的对象与元数据均已删除

	// 分享链接领域.
	TopicShareResolved = "dv.share.resolved" // 分享令牌被成功解析为文件

	// 巡检领域.
	TopicAuditOrphanFound = "dv.audit.orphan.found" // 巡检发现孤儿对象（有对象无记录）
)
