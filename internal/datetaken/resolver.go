// Package datetaken 为文件求“拍摄日期”：按固定顺序尝试一组相互独立的
// 策略，取第一个给出确定结果的；全部失败则为“未知”。
//
// 策略内部的任何解析/格式/IO 失败都只当作“无结果”，永远不上抛。
package datetaken

import (
	"time"
)

// Props 是平台相关的“按列名查媒体属性”能力（对应系统文件属性面板里的
// Media created / Date taken 列）。注入接口便于测试打桩与按平台替换。
//
// Query 返回格式化后的属性值字符串；ok=false 表示该列对此文件不存在。
type Props interface {
	Query(path, column string) (value string, ok bool, err error)
}

// Resolver 是日期求解的策略链。
type Resolver struct {
	props Props
}

// New 构造 Resolver。props 可为 nil：此时跳过属性查询策略。
func New(props Props) *Resolver {
	return &Resolver{props: props}
}

// Resolve 返回 path 的拍摄日期；ok=false 表示未知。
//
// 顺序固定：
// 1) 内嵌的拍摄时间元数据标签
// 2) 媒体属性（"Media created"，其次 "Date taken"）
// 3) 文件名里的相机/应用前缀 + 8 位日期数字
//
// 惰性求值：前一个策略给出确定结果后，后面的不再执行。
func (r *Resolver) Resolve(path string) (time.Time, bool) {
	steps := []func(string) (time.Time, bool){
		exifDate,
		r.propsDate,
		filenameDate,
	}
	for _, step := range steps {
		if t, ok := step(path); ok {
			return fixEpoch(t), true
		}
	}
	return time.Time{}, false
}

// fixEpoch 修正一类把创建时间整整写早 66 年的视频元数据缺陷
// （1904 基准纪元未换算到 1970）。只要年份早于 1970 就无条件加 66 年，
// 无论日期来自哪个策略。
func fixEpoch(t time.Time) time.Time {
	if t.Year() < 1970 {
		return t.AddDate(66, 0, 0)
	}
	return t
}
