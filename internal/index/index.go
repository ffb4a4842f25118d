// Package index 维护单个目标文件夹的 摘要→文件名 持久化索引。
//
// 索引以固定文件名的 sidecar（缩进 JSON）存放在其管辖的文件夹内；
// sidecar 自身永远不入索引、不参与哈希、不参与移动/删除。
package index

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/John-Robertt/MediaSort/internal/digest"
	"github.com/John-Robertt/MediaSort/internal/domain"
	"github.com/John-Robertt/MediaSort/internal/infra/fsx"
)

// Folder 是一个目标桶文件夹的在内存索引。
//
// 不变量：
// - 摘要键唯一；重复注册是 no-op（先写者胜：内容已存在则不再做任何事）
// - 每次真实变更立即同步持久化，崩溃不会留下仅存在于内存的状态
type Folder struct {
	dir     string
	entries map[string]string // digest -> 文件名（不含路径）
}

// Load 打开 dir 的索引：读入 sidecar（缺失、读不出、损坏一律视同为
// 空），然后与目录实际内容对账——凡在盘上但未入映射的文件补哈希后
// 静默加入（sidecar 除外）。对账产生过新增时在末尾做一次持久化。
func Load(dir string) (*Folder, error) {
	x := &Folder{
		dir:     filepath.Clean(dir),
		entries: map[string]string{},
	}

	// 读失败（缺失、无权限、名字被目录占用）与解析失败同等对待：
	// 从空映射起步靠对账重建。
	if b, err := os.ReadFile(filepath.Join(x.dir, domain.IndexFileName)); err == nil {
		var m map[string]string
		if json.Unmarshal(b, &m) == nil && m != nil {
			x.entries = m
		}
	}

	if err := x.reconcile(); err != nil {
		return nil, err
	}
	return x, nil
}

// reconcile 让内存映射与物理目录一致（只增不删：盘上消失的条目
// 留待下一次变更时随整体重写淘汰）。
func (x *Folder) reconcile() error {
	ents, err := os.ReadDir(x.dir)
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(x.entries))
	for _, name := range x.entries {
		known[name] = struct{}{}
	}

	added := false
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == domain.IndexFileName {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}

		d, err := digest.Sum(filepath.Join(x.dir, name))
		if err != nil {
			// 空文件或读失败：对账按“静默加入”的约定，跳过即可。
			continue
		}
		if _, ok := x.entries[d]; ok {
			continue
		}
		x.entries[d] = name
		added = true
	}

	if added {
		// 写回是尽力而为：sidecar 暂时写不进去（例如名字被占用）不
		// 阻断装载，内存映射已完整，下一次真实变更会再次重写。
		_ = x.persist()
	}
	return nil
}

// Dir 返回索引管辖的文件夹路径。
func (x *Folder) Dir() string { return x.dir }

// Len 返回索引内条目数。
func (x *Folder) Len() int { return len(x.entries) }

// Contains 报告摘要是否已在索引中。
func (x *Folder) Contains(dg string) bool {
	_, ok := x.entries[dg]
	return ok
}

// Add 把 (文件名, 摘要) 注册进索引。摘要已存在则是 no-op；
// 发生真实插入时立即持久化。
func (x *Folder) Add(name, dg string) error {
	if _, ok := x.entries[dg]; ok {
		return nil
	}
	x.entries[dg] = name
	return x.persist()
}

// RemoveByDigest 删除摘要对应的底层文件并移除映射、持久化，返回 true。
// 摘要不存在、或文件已不在盘上：返回 false 且无任何副作用。
func (x *Folder) RemoveByDigest(dg string) (bool, error) {
	name, ok := x.entries[dg]
	if !ok {
		return false, nil
	}

	path := filepath.Join(x.dir, name)
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if err := os.Remove(path); err != nil {
		return false, err
	}
	delete(x.entries, dg)
	if err := x.persist(); err != nil {
		return true, err
	}
	return true, nil
}

func (x *Folder) persist() error {
	b, err := json.MarshalIndent(x.entries, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(x.dir, domain.IndexFileName, b)
}
