package datetaken

import (
	"strings"
	"time"
)

// 属性列的尝试顺序固定：先视频的创建时间，再照片的拍摄时间。
var propColumns = []string{"Media created", "Date taken"}

// propsDate 逐列查询注入的属性提供者；值先清洗再解析，
// 提供者报错或列缺失都只是“无结果”。
func (r *Resolver) propsDate(path string) (time.Time, bool) {
	if r.props == nil {
		return time.Time{}, false
	}
	for _, col := range propColumns {
		v, ok, err := r.props.Query(path, col)
		if err != nil || !ok {
			continue
		}
		if t, ok := parsePropValue(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// propValueLayouts 覆盖属性面板常见的几种日期展示格式。
var propValueLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"1/2/2006 3:04 PM",
}

// parsePropValue 解析属性值：先剥掉双向控制字符（U+200E/U+200F，
// 属性面板为保证显示方向会混进这两个码点），再按已知布局逐个尝试。
func parsePropValue(s string) (time.Time, bool) {
	s = strings.Map(func(r rune) rune {
		if r == '‎' || r == '‏' {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range propValueLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
