package datetaken

import (
	"path/filepath"
	"strings"
	"time"
)

// namePrefixes 是已知的相机/应用文件名前缀；紧随其后的 8 位数字
// 按 YYYYMMDD 解释。顺序即尝试顺序（IMG_ 在 IMG- 之前）。
var namePrefixes = []string{"IMG_", "BURST", "IMG-", "GIF_Action_"}

// filenameDate 在路径中找已知前缀并解析其后的 8 位日期数字。
// 数字缺失或越界（13 月、32 日等）都是“无结果”，不上抛。
func filenameDate(path string) (time.Time, bool) {
	name := filepath.Base(path)
	for _, p := range namePrefixes {
		i := strings.Index(name, p)
		if i < 0 {
			continue
		}
		rest := name[i+len(p):]
		if len(rest) < 8 {
			continue
		}

		t, err := time.ParseInLocation("20060102", rest[:8], time.Local)
		if err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}
