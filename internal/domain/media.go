package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// UnknownBucket 是日期未知文件的固定桶标签。
const UnknownBucket = "unknown-date"

// 保留文件名：两者永远不参与扫描/索引/移动。
const (
	// IndexFileName 是每个目标文件夹内摘要索引的固定 sidecar 文件名。
	IndexFileName = "index.msort"
	// ConfigFileName 是源目录根下可选配置文件的固定文件名。
	ConfigFileName = "mediasort.json"
)

// discardExts 是“禁移”扩展名集合：命中的源文件直接删除，
// 不分类、不哈希、不移动（索引 sidecar 自身的扩展名 + 结构化元数据 sidecar）。
var discardExts = map[string]struct{}{
	".msort": {},
	".json":  {},
}

// IsDiscardExt 判断 ext（小写，含点）是否属于禁移扩展名。
func IsDiscardExt(ext string) bool {
	_, ok := discardExts[ext]
	return ok
}

// MediaFile 描述一个等待处理的源媒体文件。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - BucketKey/DedupKey 在构造时计算一次，此后不可变；
//   即便底层文件的元数据理论上会变，本轮内的桶归属也保持稳定
type MediaFile struct {
	AbsPath string
	RelPath string
	Base    string // 不含扩展名的文件名
	Ext     string // 小写，形如 ".jpg"
	Size    int64

	// DateTaken 零值表示“日期未知”。
	DateTaken time.Time

	BucketKey string
	DedupKey  string

	// Rejected 由源端去重判定置位；置位后该文件不再哈希/移动，只会被删除。
	Rejected bool
}

// NewMediaFile 构造 MediaFile，并一次性派生 BucketKey 与 DedupKey。
func NewMediaFile(absPath, relPath string, size int64, dateTaken time.Time) MediaFile {
	name := filepath.Base(absPath)
	ext := filepath.Ext(name)
	return MediaFile{
		AbsPath:   absPath,
		RelPath:   relPath,
		Base:      strings.TrimSuffix(name, ext),
		Ext:       strings.ToLower(ext),
		Size:      size,
		DateTaken: dateTaken,
		BucketKey: BucketKeyFor(dateTaken),
		DedupKey:  DedupKeyFor(name),
	}
}

// HasDate 报告拍摄日期是否确定。
func (m MediaFile) HasDate() bool { return !m.DateTaken.IsZero() }

// BucketKeyFor 由拍摄日期派生桶键："YYYY-MM"，未知日期用固定标签。
func BucketKeyFor(t time.Time) string {
	if t.IsZero() {
		return UnknownBucket
	}
	return t.Format("2006-01")
}

// DedupKeyFor 返回仅用于源端近重复比较的规范化文件名：
// 去掉括号段（含括号本身）与所有空格，大小写保留。
// 显式括号深度扫描，不用正则。
func DedupKeyFor(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	depth := 0
	for _, r := range name {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth > 0:
			// 括号内的字符整体丢弃
		case r == ' ':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
