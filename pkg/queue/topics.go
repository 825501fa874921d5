// Package queue 定义消息主题常量与分组，供发布/订阅使用.
package queue

// 主题命名规范：mv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：object(对象存储)、media(媒体处理)、meta(元数据)、cleanup(存储回收)
// 状态：完成(ed)、失败(failed)

const (
	// 对象存储领域.
	TopicObjectUploaded = "mv.object.uploaded" // 新对象写入 uploads 命名空间，触发处理
	TopicObjectDeleted  = "mv.object.deleted"  // 对象从存储中删除

	// 媒体处理领域.
	TopicMediaProcessed     = "mv.media.processed"      // 处理完成：主资产与缩略图梯队已写入
	TopicMediaProcessFailed = "mv.media.process.failed" // 处理失败：交由触发方重试
	TopicMediaSkipped       = "mv.media.skipped"        // 事件被跳过（格式不符/非媒体类型），预期噪音

	// 元数据同步领域.
	TopicMetaSynced     = "mv.meta.synced"      // 元数据成功同步到数据库
	TopicMetaSyncFailed = "mv.meta.sync.failed" // 元数据同步失败（尽力而为，不影响处理结果）

	// 存储回收领域.
	TopicCleanupCompleted = "mv.cleanup.completed" // 一批清理任务完成（含部分失败）
)

// 主题分组，用于批量订阅或权限控制.
var (
	// 对象存储相关主题集合.
	ObjectTopics = []string{
		TopicObjectUploaded, TopicObjectDeleted,
	}

	// 媒体处理相关主题集合.
	MediaTopics = []string{
		TopicMediaProcessed, TopicMediaProcessFailed, TopicMediaSkipped,
	}

	// 元数据同步相关主题集合.
	MetaTopics = []string{
		TopicMetaSynced, TopicMetaSyncFailed,
	}
)
