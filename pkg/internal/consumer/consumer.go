// Package consumer 订阅对象上传事件并驱动媒体处理管线.
package consumer

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/queue"
)

// MessageSource 抽象消息订阅来源，mq.Client 即实现.
type MessageSource interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// MediaProcessor 抽象媒体处理入口，service.Processor 即实现.
type MediaProcessor interface {
	Process(ctx context.Context, bucket, key string) (*types.ProcessResult, error)
}

// Consumer 消费 uploads 命名空间的对象上传事件：
// 成功与跳过都 Ack，处理失败 Nack 交回 broker 重投（至少一次语义）.
type Consumer struct {
	source MessageSource
	proc   MediaProcessor
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// New 创建上传事件消费者.
func New(source MessageSource, proc MediaProcessor) *Consumer {
	return &Consumer{
		source: source,
		proc:   proc,
		logger: log.Logger().With().Str("component", "consumer").Logger(),
	}
}

// Start 订阅上传主题并启动后台消费循环，ctx 取消即退出.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.source.Subscribe(ctx, queue.TopicObjectUploaded)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", queue.TopicObjectUploaded, err)
	}

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		c.loop(ctx, msgs)
	}()

	c.logger.Info().Str("topic", queue.TopicObjectUploaded).Msg("consumer started")

	return nil
}

// Wait 阻塞直到消费循环退出（订阅通道关闭或 ctx 取消）.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

func (c *Consumer) loop(ctx context.Context, msgs <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Info().Msg("subscription channel closed")
				return
			}

			c.handle(ctx, msg)
		}
	}
}

// handle 区分三种结局：
//   - 信封损坏：毒消息，重投无济于事，Ack 丢弃并告警
//   - 处理失败：Nack，交给 broker 按至少一次语义重投
//   - 成功或跳过：Ack
func (c *Consumer) handle(ctx context.Context, msg *message.Message) {
	evt, err := queue.ParseObjectUploaded(msg)
	if err != nil {
		c.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("malformed event envelope, dropping")
		msg.Ack()

		return
	}

	obj := evt.Payload.Object

	result, err := c.proc.Process(ctx, obj.Bucket, obj.ObjectKey)
	if err != nil {
		c.logger.Error().Err(err).
			Str("bucket", obj.Bucket).
			Str("key", obj.ObjectKey).
			Msg("processing failed, requeueing")
		msg.Nack()

		return
	}

	if result.Skipped {
		c.logger.Debug().Str("key", obj.ObjectKey).Str("reason", result.SkipReason).Msg("event skipped")
	} else {
		c.logger.Info().
			Str("asset_id", result.AssetID).
			Str("category", result.Category).
			Str("key", obj.ObjectKey).
			Msg("media processed")
	}

	msg.Ack()
}
