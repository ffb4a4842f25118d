// Package run 驱动一次完整的整理：扫描 → 分类 → 分桶 → 去重 → 落位。
package run

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/John-Robertt/MediaSort/internal/app"
	"github.com/John-Robertt/MediaSort/internal/config"
	"github.com/John-Robertt/MediaSort/internal/datetaken"
	"github.com/John-Robertt/MediaSort/internal/dedup"
	"github.com/John-Robertt/MediaSort/internal/digest"
	"github.com/John-Robertt/MediaSort/internal/domain"
	"github.com/John-Robertt/MediaSort/internal/index"
	"github.com/John-Robertt/MediaSort/internal/infra/fsx"
	"github.com/John-Robertt/MediaSort/internal/mover"
	"github.com/John-Robertt/MediaSort/internal/props"
	"github.com/John-Robertt/MediaSort/internal/scan"
)

// Execute 执行一次 run，并返回对外稳定的 RunReport。
// 该函数尽量把错误“降级”为 item 级失败（单条失败不影响其他文件）。
func Execute(eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(eff, nil, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许注入属性查询实现（nil 用
// 平台默认）与 Observer（由上层决定是否启用进度输出）。
//
// 执行是单线程的：去重和碰撞命名都依赖“前一个文件的落位结果马上对
// 后一个可见”，顺序处理换来的是结果可推演。
func ExecuteWithObserver(eff config.EffectiveConfig, pr datetaken.Props, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}
	if pr == nil {
		pr = props.Provider{}
	}

	rr := domain.RunReport{
		Source:    eff.Source,
		Dest:      eff.Dest,
		StartedAt: started,
		Items:     make([]domain.FileResult, 0, 128),
	}
	finish := func() domain.RunReport {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		if obs != nil {
			obs.OnFinish(rr.Summary, rr.FinishedAt.Sub(started))
		}
		return rr
	}

	scanStarted := time.Now()
	sr, err := scan.Source(eff.Source, eff.Dest, eff.ExcludeDirs)
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err)))
		return finish()
	}
	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{
			"files":    len(sr.Files),
			"discards": len(sr.Discards),
			"others":   len(sr.Others),
		}, time.Since(scanStarted))
	}

	// 禁移扩展名：直接从源树删除，不分类、不移动。
	for _, d := range sr.Discards {
		it := domain.FileResult{Src: d.RelPath, Status: domain.StatusDiscarded}
		if err := os.Remove(d.AbsPath); err != nil {
			it.Status = domain.StatusFailed
			it.ErrorCode = domain.ErrCodeIOFailed
			it.ErrorMsg = err.Error()
		}
		rr.Items = append(rr.Items, it)
	}

	// 分类：逐文件求拍摄日期。零字节文件不哈希、不移动，原地跳过。
	classifyStarted := time.Now()
	resolver := datetaken.New(pr)
	media := make([]domain.MediaFile, 0, len(sr.Files))
	dated := 0
	for _, f := range sr.Files {
		if f.Size == 0 {
			rr.Items = append(rr.Items, domain.FileResult{Src: f.RelPath, Status: domain.StatusSkipped})
			continue
		}
		t, ok := resolver.Resolve(f.AbsPath)
		if ok {
			dated++
		} else {
			t = time.Time{}
		}
		media = append(media, domain.NewMediaFile(f.AbsPath, f.RelPath, f.Size, t))
	}
	if obs != nil {
		obs.OnPhaseDone("classify", map[string]any{
			"dated":   dated,
			"unknown": len(media) - dated,
		}, time.Since(classifyStarted))
	}

	buckets := app.GroupByBucket(media)
	total := 0
	for i := range buckets {
		total += len(buckets[i].FileIdx)
	}
	if obs != nil {
		obs.OnPhaseDone("group", map[string]any{"buckets": len(buckets)}, 0)
	}

	done := 0
	emit := func(res domain.FileResult, dur time.Duration) {
		done++
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnFileDone(done, total, res, dur)
		}
	}

	for bi := range buckets {
		b := buckets[bi]
		if obs != nil {
			obs.OnBucketStart(bi+1, len(buckets), b.Key, len(b.FileIdx))
		}

		// 桶内工作在独立副本上做：去重会就地标记 Rejected。
		bf := make([]domain.MediaFile, 0, len(b.FileIdx))
		for _, idx := range b.FileIdx {
			bf = append(bf, media[idx])
		}

		dir := filepath.Join(eff.Dest, b.Key)
		if err := ensureDir(dir); err != nil {
			code := domain.ErrCodeIOFailed
			if fsx.IsPathTypeConflict(err) {
				code = domain.ErrCodeTargetConflict
			}
			for i := range bf {
				emit(domain.FileResult{
					Src: bf[i].RelPath, Bucket: b.Key,
					Status: domain.StatusFailed, ErrorCode: code, ErrorMsg: err.Error(),
				}, 0)
			}
			continue
		}

		idx, err := index.Load(dir)
		if err != nil {
			for i := range bf {
				emit(domain.FileResult{
					Src: bf[i].RelPath, Bucket: b.Key,
					Status: domain.StatusFailed, ErrorCode: domain.ErrCodeIOFailed, ErrorMsg: err.Error(),
				}, 0)
			}
			continue
		}

		// 源端去重：同 key 同日期的近重复，胜者留、负者删。
		handled := make(map[string]struct{}, 4)
		for _, rj := range dedup.Resolve(bf, idx) {
			handled[rj.Loser.AbsPath] = struct{}{}
			it := domain.FileResult{Src: rj.Loser.RelPath, Bucket: b.Key, Status: domain.StatusRejected}
			if rj.Err != nil {
				it.Status = domain.StatusFailed
				it.ErrorCode = domain.ErrCodeIOFailed
				it.ErrorMsg = rj.Err.Error()
			}
			emit(it, 0)
		}

		for i := range bf {
			f := bf[i]
			if _, ok := handled[f.AbsPath]; ok {
				continue
			}
			oneStarted := time.Now()
			emit(moveOne(f, b.Key, idx), time.Since(oneStarted))
		}
	}

	return finish()
}

// moveOne 处理一个存活文件：算摘要，然后判重删除或移动落位。
func moveOne(f domain.MediaFile, bucket string, idx *index.Folder) domain.FileResult {
	it := domain.FileResult{Src: f.RelPath, Bucket: bucket}

	dg, err := digest.Sum(f.AbsPath)
	if err != nil {
		it.Status = domain.StatusFailed
		it.ErrorCode = domain.ErrCodeIOFailed
		it.ErrorMsg = fmt.Sprintf("计算摘要失败：%v", err)
		return it
	}

	res, err := mover.Move(f, dg, idx)
	if err != nil {
		it.Status = domain.StatusFailed
		if res.Status == domain.StatusMoved {
			// 文件已落位但索引没写回：下一轮 Load 会自愈重建。
			it.ErrorCode = domain.ErrCodeIOFailed
			it.Dst = filepath.Join(bucket, res.DstName)
		} else {
			it.ErrorCode = domain.ErrCodeMoveFailed
		}
		it.ErrorMsg = err.Error()
		return it
	}

	it.Status = res.Status
	if res.Status == domain.StatusMoved {
		it.Dst = filepath.Join(bucket, res.DstName)
	}
	return it
}

func syntheticFailed(code, msg string) domain.FileResult {
	return domain.FileResult{
		Src:       "",
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

func ensureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &fsx.PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
