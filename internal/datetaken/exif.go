package datetaken

import (
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// exifDate 读图片内嵌的原始拍摄时间标签（DateTimeOriginal）。
// 任何一步失败都是“无结果”。
func exifDate(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, false
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	return parseExifString(s)
}

// parseExifString 解析 "YYYY:MM:DD HH:MM:SS" 形态的拍摄时间。
//
// 个别设备会把偏移 4 与 7 处的两个字段分隔符写成别的字符（如 '-'），
// 先统一归一化成 ':' 再解析。
func parseExifString(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.Trim(s, "\x00"))
	if len(s) < 19 {
		return time.Time{}, false
	}
	b := []byte(s[:19])
	b[4], b[7] = ':', ':'

	t, err := time.ParseInLocation("2006:01:02 15:04:05", string(b), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
