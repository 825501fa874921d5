// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/storage"
	"github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/scheduler"
)

// staleProcessingWindow 处理中状态的最长合理停留时间，超过即认定管线中断.
const staleProcessingWindow = 24 * time.Hour

// RegisterCronJobs 配置业务定时任务：
//   - 每天 04:30 清扫 uploads 命名空间里的孤儿原始对象（默认保留 30 天）
//   - 每小时 15 分把停留在 PROCESSING 超过 24h 的台账记录标记为 FAILED
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	// 每天 04:30 孤儿清扫
	_ = sched.AddCron(JobOrphanSweepDaily, CronOrphanSweepDaily, func(ctx context.Context) {
		runOrphanSweep(ctx, mgr)
	}, baseCtx)

	// 每小时标记中断的处理记录
	_ = sched.AddCron(JobStaleMarkerHourly, CronStaleMarkerHourly, func(ctx context.Context) {
		runStaleMarker(ctx, mgr)
	}, baseCtx)

	return nil
}

// SweepOnce 立即执行一次孤儿清扫，owner 为空时覆盖全部上传者.
// serve 之外的手动入口 (CLI) 也走这里，与定时任务共享同一套逻辑.
func SweepOnce(ctx context.Context, mgr *storage.Manager, owner string) error {
	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	ctx = ctxPkg.WithStorageManager(ctx, mgr)

	if owner != "" {
		lifecycle := service.NewLifecycleManager(ctx)

		result, err := lifecycle.SweepOrphans(ctx, owner)
		if err != nil {
			return fmt.Errorf("sweep owner %s: %w", owner, err)
		}

		log.Logger().Info().Str("owner", owner).Int("deleted", result.DeletedCount).Msg("swept orphaned uploads")

		return nil
	}

	runOrphanSweep(ctx, mgr)

	return nil
}

// runOrphanSweep 遍历 uploads 命名空间的所有上传者，逐个执行孤儿清扫.
func runOrphanSweep(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", "media.orphan_sweep").Logger()

	owners, err := listUploadOwners(ctx, mgr)
	if err != nil {
		l.Error().Err(err).Msg("list upload owners failed")
		return
	}

	lifecycle := service.NewLifecycleManager(ctx)

	for _, owner := range owners {
		result, e := lifecycle.SweepOrphans(ctx, owner)
		if e != nil {
			l.Error().Err(e).Str("owner", owner).Msg("orphan sweep failed")
			continue
		}

		if result.DeletedCount > 0 {
			l.Info().Str("owner", owner).Int("deleted", result.DeletedCount).Msg("swept orphaned uploads")
		}
	}
}

// runStaleMarker 把停留在 PROCESSING 超过窗口的台账记录标记为 FAILED.
// 消费者崩溃或 broker 丢投都会留下这种中断记录，标记后可由运营侧重新触发.
func runStaleMarker(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", "meta.stale_marker").Logger()

	if mgr.GetDBClient() == nil || mgr.GetDBClient().GetDB() == nil {
		l.Warn().Msg("db not initialized, skipping")
		return
	}

	table := configs.GetConfig().Media.ProcessingTable
	cutoff := time.Now().Add(-staleProcessingWindow)

	dbx := mgr.GetDBClient().GetDB().WithContext(ctx)

	result := dbx.Table(table).
		Where("status = ? AND updated_at < ?", model.StatusProcessing, cutoff).
		Updates(map[string]any{
			"status": model.StatusFailed,
			"error":  "processing interrupted, no completion within window",
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("mark stale processing failed")
		return
	}

	if result.RowsAffected > 0 {
		l.Info().Int64("affected", result.RowsAffected).Time("cutoff", cutoff).Msg("marked stale processing records")
	}
}

// listUploadOwners 扫描 uploads/ 前缀，收集出现过的上传者命名空间.
// 孤儿对象未必有台账记录，所以以对象存储而不是数据库为准.
func listUploadOwners(ctx context.Context, mgr *storage.Manager) ([]string, error) {
	s3 := mgr.GetS3Client()
	if s3 == nil {
		return nil, fmt.Errorf("s3 not initialized")
	}

	objects, err := s3.ListPrefix(ctx, configs.DefaultUploadsPrefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})

	for _, obj := range objects {
		rest := strings.TrimPrefix(obj.Key, configs.DefaultUploadsPrefix)

		owner, _, ok := strings.Cut(rest, "/")
		if !ok || owner == "" {
			continue
		}

		seen[owner] = struct{}{}
	}

	owners := make([]string, 0, len(seen))
	for owner := range seen {
		owners = append(owners, owner)
	}

	sort.Strings(owners)

	return owners, nil
}
