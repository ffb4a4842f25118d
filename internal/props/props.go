// Package props 提供 datetaken.Props 的默认实现。
//
// 这本质上是平台文件属性子系统的替身：按与资源管理器同名的列语义
// 回答查询，从而让核心在各平台上行为一致、在测试里可被打桩替换。
// 查询是同步阻塞调用，没有超时——与真实的属性子系统一致。
package props

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	mp4 "github.com/abema/go-mp4"
	exifv3 "github.com/dsoprea/go-exif/v3"

	"github.com/John-Robertt/MediaSort/internal/datetaken"
)

// Provider 支持两列：
// - "Media created"：MP4/MOV 容器 mvhd 的创建时间（1904 基准纪元换算）
// - "Date taken"：EXIF 拍摄时间（扁平 universal 搜索，容器不限，
//   能覆盖 goexif 解码器拒绝的 TIFF/PNG/HEIC 载荷）
type Provider struct{}

var _ datetaken.Props = Provider{}

// timeLayout 是属性值的输出格式；与 datetaken 的解析布局保持一致。
const timeLayout = "2006-01-02 15:04:05"

func (Provider) Query(path, column string) (string, bool, error) {
	switch column {
	case "Media created":
		return mediaCreated(path)
	case "Date taken":
		return dateTaken(path)
	default:
		return "", false, nil
	}
}

// appleEpochOffset 是 1904-01-01 到 1970-01-01 的秒数（mvhd 的纪元基准）。
const appleEpochOffset = 2082844800

func mediaCreated(path string) (string, bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".m4v", ".3gp":
	default:
		return "", false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	var (
		created time.Time
		found   bool
	)
	_, err = mp4.ReadBoxStructure(f, func(h *mp4.ReadHandle) (interface{}, error) {
		if !h.BoxInfo.IsSupportedType() {
			return nil, nil
		}
		box, _, err := h.ReadPayload()
		if err != nil {
			return nil, err
		}
		if mvhd, ok := box.(*mp4.Mvhd); ok {
			epoch := uint64(mvhd.CreationTimeV0)
			if mvhd.GetVersion() == 1 {
				epoch = mvhd.CreationTimeV1
			}
			// 0 表示设备根本没填，不算结果。
			if epoch != 0 {
				created = time.Unix(int64(epoch)-appleEpochOffset, 0)
				found = true
			}
			return nil, nil
		}
		_, err = h.Expand()
		if errors.Is(err, mp4.ErrUnsupportedBoxVersion) {
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	return created.Format(timeLayout), true, nil
}

// exifDateNames 的顺序：优先原始拍摄时间，退而求其次取修改时间。
var exifDateNames = []string{"DateTimeOriginal", "DateTime"}

func dateTaken(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	raw, err := exifv3.SearchAndExtractExifWithReader(f)
	if err != nil {
		if errors.Is(err, exifv3.ErrNoExif) {
			return "", false, nil
		}
		return "", false, err
	}

	entries, _, err := exifv3.GetFlatExifDataUniversalSearch(raw, nil, true)
	if err != nil {
		return "", false, err
	}

	for _, name := range exifDateNames {
		for _, e := range entries {
			if e.TagName != name {
				continue
			}
			s, ok := e.Value.(string)
			if !ok {
				continue
			}
			t, err := time.ParseInLocation("2006:01:02 15:04:05", strings.TrimSpace(s), time.Local)
			if err != nil {
				continue
			}
			return t.Format(timeLayout), true, nil
		}
	}
	return "", false, nil
}
