package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	// StatusMoved 文件已移动到目标桶。
	StatusMoved = "moved"
	// StatusDuplicate 目标桶已有相同内容，源文件被删除。
	StatusDuplicate = "duplicate"
	// StatusRejected 源端去重判负，源文件被删除。
	StatusRejected = "rejected"
	// StatusDiscarded 禁移扩展名，源文件被直接删除。
	StatusDiscarded = "discarded"
	// StatusSkipped 零字节文件：不哈希、不移动、不删除。
	StatusSkipped = "skipped"
	// StatusFailed 单文件操作失败（不影响其余文件继续处理）。
	StatusFailed = "failed"
)

const (
	ErrCodeIOFailed       = "io_failed"
	ErrCodeMoveFailed     = "move_failed"
	ErrCodeTargetConflict = "target_conflict"
	ErrCodeConfigInvalid  = "config_invalid"
	ErrCodeMissingSource  = "setup_missing_source"
	ErrCodeMissingDest    = "setup_missing_dest"
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
type RunReport struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []FileResult  `json:"items"`
}

type ReportSummary struct {
	Moved      int `json:"moved"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
	Discarded  int `json:"discarded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// FileResult 是单个源文件的处理结果条目。
type FileResult struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Bucket string `json:"bucket"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 src 字典序；src=="" 的合成条目排最后
// 3) summary 由 items 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].Src
		b := r.Items[j].Src
		if a == "" && b == "" {
			return false
		}
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusMoved:
			s.Moved++
		case StatusDuplicate:
			s.Duplicates++
		case StatusRejected:
			s.Rejected++
		case StatusDiscarded:
			s.Discarded++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
