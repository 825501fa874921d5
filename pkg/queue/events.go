package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishObjectUploaded 发布 mv.object.uploaded 事件.
// 消息 ID 用 bucket|key|etag 的确定性哈希，重复投递在 JetStream 层去重.
func PublishObjectUploaded(pub message.Publisher, payload ObjectUploadedPayload, opts ...func(*EventHeader)) error {
	id := DeterministicMessageID(TopicObjectUploaded, payload.Object.Bucket, payload.Object.ObjectKey, payload.Object.ETag)

	msg, err := NewWatermillMessageWithID(id, TopicObjectUploaded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicObjectUploaded, msg)
}

// ParseObjectUploaded 将 Watermill 消息解析为强类型 Envelope（ObjectUploadedPayload）.
func ParseObjectUploaded(msg *message.Message) (Message[ObjectUploadedPayload], error) {
	return ParseWatermillMessage[ObjectUploadedPayload](msg)
}

// PublishMediaProcessed 发布 mv.media.processed 事件，通知下游（业务表回填、缓存失效等）.
func PublishMediaProcessed(pub message.Publisher, payload MediaProcessedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicMediaProcessed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicMediaProcessed, msg)
}

// ParseMediaProcessed 解析 mv.media.processed 消息.
func ParseMediaProcessed(msg *message.Message) (Message[MediaProcessedPayload], error) {
	return ParseWatermillMessage[MediaProcessedPayload](msg)
}

// PublishMediaProcessFailed 发布 mv.media.process.failed 事件.
func PublishMediaProcessFailed(pub message.Publisher, payload MediaProcessFailedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicMediaProcessFailed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicMediaProcessFailed, msg)
}

// PublishMediaSkipped 发布 mv.media.skipped 事件.
func PublishMediaSkipped(pub message.Publisher, payload MediaSkippedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicMediaSkipped, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicMediaSkipped, msg)
}

// PublishCleanupCompleted 发布 mv.cleanup.completed 事件.
func PublishCleanupCompleted(pub message.Publisher, payload CleanupCompletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicCleanupCompleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicCleanupCompleted, msg)
}
