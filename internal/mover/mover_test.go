package mover

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/John-Robertt/MediaSort/internal/digest"
	"github.com/John-Robertt/MediaSort/internal/domain"
	"github.com/John-Robertt/MediaSort/internal/index"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}
}

func mediaAt(t *testing.T, path string) (domain.MediaFile, string) {
	t.Helper()
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat 失败：%v", err)
	}
	dg, err := digest.Sum(path)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	return domain.NewMediaFile(path, filepath.Base(path), fi.Size(), time.Time{}), dg
}

func TestMove_FirstUseOfNameKeepsOriginal(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "photo.jpg"), []byte("one"))

	idx, err := index.Load(dst)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	m, dg := mediaAt(t, filepath.Join(src, "photo.jpg"))
	res, err := Move(m, dg, idx)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if res.Status != domain.StatusMoved || res.DstName != "photo.jpg" {
		t.Fatalf("期望移动为 photo.jpg，实际 %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dst, "photo.jpg")); err != nil {
		t.Fatalf("目标文件缺失：%v", err)
	}
	if _, err := os.Stat(filepath.Join(src, "photo.jpg")); !os.IsNotExist(err) {
		t.Fatalf("源文件应已消失")
	}
}

func TestMove_SuffixesOnNameCollision(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "photo.jpg"), []byte("occupied"))
	writeFile(t, filepath.Join(src, "photo.jpg"), []byte("two"))

	idx, err := index.Load(dst)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	m, dg := mediaAt(t, filepath.Join(src, "photo.jpg"))
	res, err := Move(m, dg, idx)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if res.DstName != "photo_0001.jpg" {
		t.Fatalf("期望 photo_0001.jpg，实际 %q", res.DstName)
	}

	// 再来一个同名不同内容的文件：继续顺延到 _0002。
	writeFile(t, filepath.Join(src, "photo.jpg"), []byte("three"))
	m, dg = mediaAt(t, filepath.Join(src, "photo.jpg"))
	res, err = Move(m, dg, idx)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if res.DstName != "photo_0002.jpg" {
		t.Fatalf("期望 photo_0002.jpg，实际 %q", res.DstName)
	}
}

func TestMove_DuplicateDigestDeletesSource(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "kept.jpg"), []byte("same"))
	writeFile(t, filepath.Join(src, "incoming.jpg"), []byte("same"))

	idx, err := index.Load(dst)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	m, dg := mediaAt(t, filepath.Join(src, "incoming.jpg"))
	res, err := Move(m, dg, idx)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if res.Status != domain.StatusDuplicate || res.DstName != "" {
		t.Fatalf("期望判重删除，实际 %+v", res)
	}
	if _, err := os.Stat(filepath.Join(src, "incoming.jpg")); !os.IsNotExist(err) {
		t.Fatalf("重复源文件应被删除")
	}
	if idx.Len() != 1 {
		t.Fatalf("索引不应新增条目，实际 %d", idx.Len())
	}
}

func TestMove_RegistersDigestInIndex(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.jpg"), []byte("alpha"))

	idx, err := index.Load(dst)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	m, dg := mediaAt(t, filepath.Join(src, "a.jpg"))
	if _, err := Move(m, dg, idx); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !idx.Contains(dg) {
		t.Fatalf("索引应包含新文件摘要")
	}

	// 重新加载验证已持久化。
	idx2, err := index.Load(dst)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !idx2.Contains(dg) {
		t.Fatalf("摘要应已落盘")
	}
}
