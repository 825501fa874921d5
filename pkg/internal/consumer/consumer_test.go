package consumer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/consumer"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/queue"
)

var configOnce sync.Once

func initTestConfig(t *testing.T) {
	t.Helper()

	configOnce.Do(func() {
		if err := configs.InitConfig(t.TempDir()); err != nil {
			t.Fatalf("init config: %v", err)
		}
	})
}

type fakeSource struct {
	msgs chan *message.Message
}

func (f *fakeSource) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return f.msgs, nil
}

type fakeProcessor struct {
	mu     sync.Mutex
	calls  []string
	err    error
	result *types.ProcessResult
}

func (f *fakeProcessor) Process(ctx context.Context, bucket, key string) (*types.ProcessResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	if f.result != nil {
		return f.result, nil
	}

	return &types.ProcessResult{AssetID: "01HTESTASSETID0000000000AA", Category: "media"}, nil
}

func (f *fakeProcessor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

func uploadedMessage(t *testing.T, key string) *message.Message {
	t.Helper()

	msg, err := queue.NewWatermillMessage(queue.TopicObjectUploaded, queue.ObjectUploadedPayload{
		Object: queue.ObjectRef{Bucket: "mediavault", ObjectKey: key},
	})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}

	return msg
}

func startConsumer(t *testing.T, src *fakeSource, proc *fakeProcessor) *consumer.Consumer {
	t.Helper()

	c := consumer.New(src, proc)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	return c
}

// TestConsumerAcksProcessed 处理成功的消息被 Ack.
func TestConsumerAcksProcessed(t *testing.T) {
	initTestConfig(t)

	src := &fakeSource{msgs: make(chan *message.Message, 1)}
	proc := &fakeProcessor{}
	c := startConsumer(t, src, proc)

	msg := uploadedMessage(t, "uploads/u123/1700000000000-photo.jpg")
	src.msgs <- msg

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("message nacked, want ack")
	case <-time.After(2 * time.Second):
		t.Fatal("message neither acked nor nacked")
	}

	if proc.callCount() != 1 {
		t.Errorf("processor calls = %d, want 1", proc.callCount())
	}

	close(src.msgs)
	c.Wait()
}

// TestConsumerAcksSkipped 跳过也是正常结局，同样 Ack.
func TestConsumerAcksSkipped(t *testing.T) {
	initTestConfig(t)

	src := &fakeSource{msgs: make(chan *message.Message, 1)}
	proc := &fakeProcessor{result: &types.ProcessResult{Skipped: true, SkipReason: "unsupported media type"}}
	c := startConsumer(t, src, proc)

	msg := uploadedMessage(t, "uploads/u123/1700000000000-notes.txt")
	src.msgs <- msg

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("skipped message nacked, want ack")
	case <-time.After(2 * time.Second):
		t.Fatal("message neither acked nor nacked")
	}

	close(src.msgs)
	c.Wait()
}

// TestConsumerNacksProcessingFailure 处理失败 Nack，交给 broker 重投.
func TestConsumerNacksProcessingFailure(t *testing.T) {
	initTestConfig(t)

	src := &fakeSource{msgs: make(chan *message.Message, 1)}
	proc := &fakeProcessor{err: errors.New("fetch source object: connection refused")}
	c := startConsumer(t, src, proc)

	msg := uploadedMessage(t, "uploads/u123/1700000000000-photo.jpg")
	src.msgs <- msg

	select {
	case <-msg.Nacked():
	case <-msg.Acked():
		t.Fatal("failed message acked, want nack")
	case <-time.After(2 * time.Second):
		t.Fatal("message neither acked nor nacked")
	}

	close(src.msgs)
	c.Wait()
}

// TestConsumerDropsPoisonMessage 信封损坏的消息 Ack 丢弃，不进处理器.
func TestConsumerDropsPoisonMessage(t *testing.T) {
	initTestConfig(t)

	src := &fakeSource{msgs: make(chan *message.Message, 1)}
	proc := &fakeProcessor{}
	c := startConsumer(t, src, proc)

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	src.msgs <- msg

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("poison message nacked, would loop forever")
	case <-time.After(2 * time.Second):
		t.Fatal("message neither acked nor nacked")
	}

	if proc.callCount() != 0 {
		t.Errorf("processor called %d times for poison message", proc.callCount())
	}

	close(src.msgs)
	c.Wait()
}

// TestConsumerStopsOnContextCancel ctx 取消后消费循环退出.
func TestConsumerStopsOnContextCancel(t *testing.T) {
	initTestConfig(t)

	src := &fakeSource{msgs: make(chan *message.Message)}
	proc := &fakeProcessor{}

	ctx, cancel := context.WithCancel(context.Background())

	c := consumer.New(src, proc)
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop on context cancel")
	}
}
