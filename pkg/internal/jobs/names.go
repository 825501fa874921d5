package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobOrphanSweepDaily  = "media.orphan_sweep.daily"
	JobStaleMarkerHourly = "meta.stale_marker.hourly"
)

// Cron 表达式常量（可选，但推荐一并集中管理）.
const (
	CronOrphanSweepDaily  = "30 4 * * *"
	CronStaleMarkerHourly = "15 * * * *"
)
