// Package dedup 在同一目标桶内消除源端近重复，赶在任何移动发生之前。
package dedup

import (
	"os"

	"github.com/John-Robertt/MediaSort/internal/digest"
	"github.com/John-Robertt/MediaSort/internal/domain"
	"github.com/John-Robertt/MediaSort/internal/index"
)

// Rejection 记录一次判定结果：Loser 被删除（或删除失败时带上 Err）。
type Rejection struct {
	Loser  domain.MediaFile
	Winner domain.MediaFile
	Err    error
}

// Resolve 对桶内文件做全配对扫描（桶是个人相册的月份规模，平方可接受）。
//
// 判定条件：两侧都仍在盘上、日期都确定、dedupKey 相等且 dateTaken 相等。
// 判负规则：较大者保留；大小完全相同时，比较顺序中的第二个判负。
//
// 判负方：先算摘要并从目标索引移除（覆盖上一轮已把等价文件搬进目标的
// 情形），再从源位置删除并标记 Rejected。某一侧已在本轮更早的配对里
// 被删除时，跳过该配对。删除失败不标记 Rejected（文件留给后续流程），
// 由调用方按单文件失败记账。
func Resolve(files []domain.MediaFile, idx *index.Folder) []Rejection {
	var out []Rejection
	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			a, b := &files[i], &files[j]
			if a.Rejected || b.Rejected {
				continue
			}
			if !a.HasDate() || !b.HasDate() {
				continue
			}
			if a.DedupKey != b.DedupKey || !a.DateTaken.Equal(b.DateTaken) {
				continue
			}
			if !stillExists(a.AbsPath) || !stillExists(b.AbsPath) {
				continue
			}

			// 较大者保留；完全同长则第二个判负。
			winner, loser := a, b
			if b.Size > a.Size {
				winner, loser = b, a
			}

			rej := Rejection{Loser: *loser, Winner: *winner}
			if err := discard(loser.AbsPath, idx); err != nil {
				rej.Err = err
			} else {
				loser.Rejected = true
				rej.Loser = *loser
			}
			out = append(out, rej)
		}
	}
	return out
}

// discard 淘汰一个源文件：摘要先行（可能要顺带清掉目标索引里的等价
// 内容），随后删除源文件本体。
func discard(path string, idx *index.Folder) error {
	d, err := digest.Sum(path)
	if err != nil {
		return err
	}
	if _, err := idx.RemoveByDigest(d); err != nil {
		return err
	}
	return os.Remove(path)
}

func stillExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
