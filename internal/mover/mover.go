// Package mover 把存活的源文件落位到目标桶文件夹，并维护其摘要索引。
package mover

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/MediaSort/internal/domain"
	"github.com/John-Robertt/MediaSort/internal/index"
	"github.com/John-Robertt/MediaSort/internal/infra/fsx"
)

// Result 描述一次落位的结果。
type Result struct {
	// Status 是 domain.StatusMoved 或 domain.StatusDuplicate。
	Status string
	// DstName 仅在移动发生时有值（目标文件夹内的文件名）。
	DstName string
}

// Move 处理一个存活、非空、未判负且摘要已算出的文件：
//
// - 摘要已在索引中：源文件是目标内容的重复，删除源，不移动；
// - 否则分配无冲突目标名（原名 → 原名_0001 → 原名_0002 …），
//   移动后把 (目标名, 摘要) 登记进索引。
//
// 移动/删除失败原样上抛，由调用方按单文件失败记账后继续。
func Move(m domain.MediaFile, dg string, idx *index.Folder) (Result, error) {
	if idx.Contains(dg) {
		if err := os.Remove(m.AbsPath); err != nil {
			return Result{}, err
		}
		return Result{Status: domain.StatusDuplicate}, nil
	}

	name, err := allocName(idx.Dir(), filepath.Base(m.AbsPath))
	if err != nil {
		return Result{}, err
	}
	if err := fsx.Rename(m.AbsPath, filepath.Join(idx.Dir(), name)); err != nil {
		return Result{}, err
	}
	if err := idx.Add(name, dg); err != nil {
		// 文件已经落位：索引持久化失败也要把结果报给上层。
		return Result{Status: domain.StatusMoved, DstName: name}, err
	}
	return Result{Status: domain.StatusMoved, DstName: name}, nil
}

// allocName 以磁盘实况为准分配目标文件名：首选原名；冲突则在扩展名前
// 追加 _NNNN（零填充，从 1 起）直到找到不存在的名字。
func allocName(dir, name string) (string, error) {
	free, err := nameFree(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if free {
		return name, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		cand := fmt.Sprintf("%s_%04d%s", base, n, ext)
		free, err := nameFree(filepath.Join(dir, cand))
		if err != nil {
			return "", err
		}
		if free {
			return cand, nil
		}
	}
}

func nameFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if os.IsNotExist(err) {
		return true, nil
	}
	return false, err
}
