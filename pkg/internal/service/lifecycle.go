package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/media"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	nlog "github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/metrics"
	"github.com/yeisme/mediavault/pkg/queue"
)

// CleanupTask 单个待清理的对象指针. 仅存在于进程内队列，不跨重启持久化；
// 崩溃丢失的任务由孤儿清扫兜底.
type CleanupTask struct {
	Key    string
	Reason string
}

// LifecycleOptions 生命周期管理器的可注入参数，测试可步进时钟.
type LifecycleOptions struct {
	BatchSize int
	// Pause 批间停顿，避免打满存储后端的请求预算
	Pause     time.Duration
	QueueSize int
	// Retention 孤儿清扫的保留窗口
	Retention time.Duration
	Now       func() time.Time
	// Sleep 批间停顿的执行方式，测试注入空实现
	Sleep func(time.Duration)
}

// LifecycleManager 资产生命周期管理：删除、批量删除、异步清理排队与孤儿清扫.
// 清理队列是实例持有的有界 channel——同步入队、单个后台循环按固定批量排空，
// 调用方从不阻塞在清理上.
type LifecycleManager struct {
	store ObjectStore
	meta  *MetadataSynchronizer
	pub   message.Publisher

	tasks chan CleanupTask
	opts  LifecycleOptions

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewLifecycleManager 从请求上下文与全局配置构造管理器.
func NewLifecycleManager(c context.Context) *LifecycleManager {
	mediaCfg := configs.GetConfig().Media

	var pub message.Publisher
	if mq := ctxPkg.GetMQClient(c); mq != nil {
		pub = mqPublisher{mq: mq, ctx: c}
	}

	return NewLifecycleManagerWith(ctxPkg.GetS3Client(c), NewMetadataSynchronizer(c), pub, LifecycleOptions{
		BatchSize: mediaCfg.CleanupBatchSize,
		Pause:     mediaCfg.GetCleanupPause(),
		QueueSize: mediaCfg.CleanupQueueSize,
		Retention: mediaCfg.GetOrphanRetention(),
	})
}

// NewLifecycleManagerWith 显式注入依赖的构造函数.
func NewLifecycleManagerWith(store ObjectStore, meta *MetadataSynchronizer, pub message.Publisher, opts LifecycleOptions) *LifecycleManager {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	return &LifecycleManager{
		store: store,
		meta:  meta,
		pub:   pub,
		tasks: make(chan CleanupTask, opts.QueueSize),
		opts:  opts,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start 启动后台排空循环（幂等）.
// 排空用的上下文只继承值、不继承取消：管线上下文在停机时先被取消，
// 若删除请求跟着取消，Stop 的"排空剩余队列"就变成了整批失败.
func (m *LifecycleManager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		go m.drainLoop(context.WithoutCancel(ctx))
	})
}

// Stop 请求停止：进行中的批次跑完，队列中剩余任务继续排空后退出.
func (m *LifecycleManager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// DeleteObject 同步删除单个对象引用.
func (m *LifecycleManager) DeleteObject(ctx context.Context, ref string) error {
	key, ok := KeyFromReadURL(ref)
	if !ok {
		return fmt.Errorf("unparseable object reference: %s", ref)
	}

	if err := m.store.Remove(ctx, key); err != nil {
		metrics.CleanupCounter.WithLabelValues("failed").Inc()
		return err
	}

	metrics.CleanupCounter.WithLabelValues("deleted").Inc()

	return nil
}

// ScheduleCleanup 解析引用并入队，立即返回实际入队数.
// 不可解析的引用丢弃并告警（绝不抛错）；队列满时同样丢弃告警，
// 交由孤儿清扫兜底，保证调用方永不阻塞.
func (m *LifecycleManager) ScheduleCleanup(refs []string, reason string) int {
	enqueued := 0

	for _, ref := range refs {
		key, ok := KeyFromReadURL(ref)
		if !ok {
			nlog.Logger().Warn().Str("ref", ref).Str("reason", reason).Msg("unparseable cleanup reference dropped")
			continue
		}

		select {
		case m.tasks <- CleanupTask{Key: key, Reason: reason}:
			enqueued++

			metrics.CleanupQueueDepth.Set(float64(len(m.tasks)))
		default:
			nlog.Logger().Warn().Str("key", key).Msg("cleanup queue full, task dropped")
		}
	}

	return enqueued
}

// QueueDepth 当前队列深度.
func (m *LifecycleManager) QueueDepth() int {
	return len(m.tasks)
}

// drainLoop 单个后台循环：按固定批量排空队列，批内并发、批间顺序并停顿.
func (m *LifecycleManager) drainLoop(ctx context.Context) {
	defer close(m.done)

	for {
		batch := m.nextBatch()
		if batch == nil {
			return
		}

		m.drainBatch(ctx, batch)
		metrics.CleanupQueueDepth.Set(float64(len(m.tasks)))

		if m.opts.Pause > 0 {
			m.opts.Sleep(m.opts.Pause)
		}
	}
}

// nextBatch 阻塞取下一批任务；收到停止信号后排空剩余任务，空了返回 nil.
func (m *LifecycleManager) nextBatch() []CleanupTask {
	var first CleanupTask

	select {
	case first = <-m.tasks:
	case <-m.stop:
		// 停止后不再等待新任务，只排空已入队的
		select {
		case first = <-m.tasks:
		default:
			return nil
		}
	}

	batch := []CleanupTask{first}

	for len(batch) < m.opts.BatchSize {
		select {
		case t := <-m.tasks:
			batch = append(batch, t)
		default:
			return batch
		}
	}

	return batch
}

// drainBatch 批内每个删除独立尝试（allSettled 语义）：单个失败不中止同批其余删除.
func (m *LifecycleManager) drainBatch(ctx context.Context, batch []CleanupTask) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		deleted int
		failed  int
	)

	for _, task := range batch {
		wg.Add(1)

		go func(t CleanupTask) {
			defer wg.Done()

			if err := m.store.Remove(ctx, t.Key); err != nil {
				nlog.Logger().Warn().Err(err).Str("key", t.Key).Str("reason", t.Reason).Msg("cleanup deletion failed")
				metrics.CleanupCounter.WithLabelValues("failed").Inc()

				mu.Lock()
				failed++
				mu.Unlock()

				return
			}

			metrics.CleanupCounter.WithLabelValues("deleted").Inc()

			mu.Lock()
			deleted++
			mu.Unlock()
		}(task)
	}

	wg.Wait()

	if m.pub != nil {
		_ = queue.PublishCleanupCompleted(m.pub, queue.CleanupCompletedPayload{
			Reason:  batch[0].Reason,
			Deleted: deleted,
			Failed:  failed,
		})
	}
}

// BatchDelete 按条目并发删除，收集每条成败，聚合报告.
// 部分失败是常态而非异常：无论多少条失败都不返回 error.
func (m *LifecycleManager) BatchDelete(ctx context.Context, items []types.BatchDeleteItem) *types.BatchDeleteResult {
	var (
		mu     sync.Mutex
		failed []string
	)

	g := &errgroup.Group{}
	g.SetLimit(m.opts.BatchSize)

	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := m.deleteItem(ctx, item); err != nil {
				nlog.Logger().Warn().Err(err).Str("id", item.ID).Msg("batch delete item failed")

				mu.Lock()
				failed = append(failed, item.ID)
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	if failed == nil {
		failed = []string{}
	}

	return &types.BatchDeleteResult{
		Success: len(failed) == 0,
		Failed:  failed,
	}
}

// deleteItem 删除一个条目的全部对象引用并把元数据标记为 DELETED.
func (m *LifecycleManager) deleteItem(ctx context.Context, item types.BatchDeleteItem) error {
	var firstErr error

	for _, ref := range item.Refs {
		key, ok := KeyFromReadURL(ref)
		if !ok {
			nlog.Logger().Warn().Str("ref", ref).Msg("unparseable reference in batch delete")
			continue
		}

		if err := m.store.Remove(ctx, key); err != nil {
			metrics.CleanupCounter.WithLabelValues("failed").Inc()

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		metrics.CleanupCounter.WithLabelValues("deleted").Inc()
	}

	// 软生命周期：状态置 DELETED，行不删除
	if m.meta != nil && firstErr == nil {
		extra := map[string]string{}
		if len(item.Refs) > 0 {
			extra["url"] = item.Refs[0]
		}

		if err := m.meta.MarkStatus(ctx, item.ID, model.StatusDeleted, extra); err != nil {
			nlog.Logger().Warn().Err(err).Str("id", item.ID).Msg("mark deleted failed")
		}
	}

	return firstErr
}

// SweepOrphans 孤儿清扫：列出 owner 的上传前缀，删除超过保留窗口
// 且没有同名处理后对应物的原始对象. 这是处理事件丢失或静默失败的安全网.
func (m *LifecycleManager) SweepOrphans(ctx context.Context, ownerID string) (*types.SweepResult, error) {
	prefix := configs.DefaultUploadsPrefix + ownerID + "/"

	objects, err := m.store.ListPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list uploads for %s: %w", ownerID, err)
	}

	cutoff := m.opts.Now().Add(-m.opts.Retention)
	deleted := 0

	for _, obj := range objects {
		// 保留窗口内的对象绝不删除
		if !obj.LastModified.Before(cutoff) {
			continue
		}

		ref, ok := media.ParseUploadKey(obj.Key)
		if !ok {
			continue
		}

		// 有处理后对应物说明不是孤儿；编码回落的图像其对应物扩展名是 .jpg
		category := media.Classify(obj.Key)
		processedKey := media.ProcessedKey(category, ref.UploaderID, media.OutputName(ref.BaseName))

		exists, err := m.store.Exists(ctx, processedKey)
		if err != nil {
			nlog.Logger().Warn().Err(err).Str("key", obj.Key).Msg("orphan check failed, skipping")
			continue
		}

		if exists {
			continue
		}

		if err := m.store.Remove(ctx, obj.Key); err != nil {
			nlog.Logger().Warn().Err(err).Str("key", obj.Key).Msg("orphan deletion failed")
			metrics.CleanupCounter.WithLabelValues("failed").Inc()

			continue
		}

		metrics.CleanupCounter.WithLabelValues("deleted").Inc()

		deleted++
	}

	nlog.Logger().Info().Str("owner", ownerID).Int("deleted", deleted).Msg("orphan sweep finished")

	return &types.SweepResult{DeletedCount: deleted}, nil
}
