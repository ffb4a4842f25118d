package run

import (
	"time"

	"github.com/John-Robertt/MediaSort/internal/config"
	"github.com/John-Robertt/MediaSort/internal/domain"
)

// Observer 用于把“运行进度/阶段/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 执行是单线程的，但实现仍不应阻塞：事件回调在热路径上。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnBucketStart 在进入一个目标桶时调用。
	OnBucketStart(idx, total int, key string, files int)
	// OnFileDone 在桶内某个文件处理完成时调用（用于每条结果的一行输出）。
	OnFileDone(done, total int, res domain.FileResult, dur time.Duration)
	// OnFinish 在整个 run 收尾后调用。
	OnFinish(summary domain.ReportSummary, elapsed time.Duration)
}
