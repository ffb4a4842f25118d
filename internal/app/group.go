package app

import (
	"sort"

	"github.com/John-Robertt/MediaSort/internal/domain"
)

// Bucket 是一个目标月份文件夹的工作单元（只存 file index）。
type Bucket struct {
	Key     string
	FileIdx []int
}

// GroupByBucket 把媒体文件按 BucketKey 分组。
//
// - buckets 稳定排序：按 Key 字典序（"unknown-date" 自然排在所有 "YYYY-MM" 之后）
// - bucket 内 FileIdx 稳定排序：按 RelPath 字典序
func GroupByBucket(files []domain.MediaFile) []Bucket {
	index := make(map[string]int, 32)
	buckets := make([]Bucket, 0, 32)

	for i := range files {
		key := files[i].BucketKey
		if idx, ok := index[key]; ok {
			buckets[idx].FileIdx = append(buckets[idx].FileIdx, i)
			continue
		}
		index[key] = len(buckets)
		buckets = append(buckets, Bucket{
			Key:     key,
			FileIdx: []int{i},
		})
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	for i := range buckets {
		sort.Slice(buckets[i].FileIdx, func(a, b int) bool {
			ia := buckets[i].FileIdx[a]
			ib := buckets[i].FileIdx[b]
			return files[ia].RelPath < files[ib].RelPath
		})
	}
	return buckets
}
