package digest

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

// fakeJPEG 拼一个最小合法的段表：SOI + APP1(meta) + SOS + scan。
func fakeJPEG(meta, scan []byte) []byte {
	out := []byte{0xFF, 0xD8}
	out = append(out, 0xFF, 0xE1)
	n := len(meta) + 2
	out = append(out, byte(n>>8), byte(n))
	out = append(out, meta...)
	out = append(out, 0xFF, 0xDA)
	out = append(out, scan...)
	return out
}

func writeFile(t *testing.T, dir, name string, b []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	return p
}

func TestSum_JPEGMetadataIgnored(t *testing.T) {
	dir := t.TempDir()
	scan := []byte("compressed-scan-data")

	a := writeFile(t, dir, "a.jpg", fakeJPEG([]byte("Exif-v1"), scan))
	b := writeFile(t, dir, "b.JPG", fakeJPEG([]byte("Exif-v2-rotated-and-longer"), scan))

	da, err := Sum(a)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	db, err := Sum(b)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if da != db {
		t.Fatalf("仅元数据不同的 JPEG 摘要应一致：%q vs %q", da, db)
	}

	want := md5.Sum(scan)
	if da != hex.EncodeToString(want[:]) {
		t.Fatalf("摘要应只覆盖扫描数据：%q", da)
	}
}

func TestSum_JPEGScanDataChangesDigest(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.jpg", fakeJPEG([]byte("meta"), []byte("scan-1")))
	b := writeFile(t, dir, "b.jpg", fakeJPEG([]byte("meta"), []byte("scan-2")))

	da, _ := Sum(a)
	db, _ := Sum(b)
	if da == db {
		t.Fatalf("扫描数据不同的 JPEG 摘要不应一致")
	}
}

func TestSum_NonJPEGWholeFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("any bytes at all")
	p := writeFile(t, dir, "v.mp4", content)

	d, err := Sum(p)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := md5.Sum(content)
	if d != hex.EncodeToString(want[:]) {
		t.Fatalf("非 JPEG 应整文件取摘要：%q", d)
	}
}

func TestSum_MalformedJPEGFallsBack(t *testing.T) {
	dir := t.TempDir()

	// 扩展名是 .jpg 但没有 SOI：结构解析失败，回退整文件摘要。
	content := []byte("not a jpeg")
	p := writeFile(t, dir, "broken.jpg", content)

	d, err := Sum(p)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := md5.Sum(content)
	if d != hex.EncodeToString(want[:]) {
		t.Fatalf("结构解析失败应回退整文件摘要：%q", d)
	}

	// 段表截断：SOI 合法但段长度越过文件尾。
	trunc := []byte{0xFF, 0xD8, 0xFF, 0xE1, 0xFF, 0xFF, 0x00}
	p2 := writeFile(t, dir, "trunc.jpg", trunc)
	d2, err := Sum(p2)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want2 := md5.Sum(trunc)
	if d2 != hex.EncodeToString(want2[:]) {
		t.Fatalf("段表截断应回退整文件摘要：%q", d2)
	}
}

func TestSum_EmptyOrMissingFatal(t *testing.T) {
	dir := t.TempDir()

	empty := writeFile(t, dir, "empty.jpg", nil)
	if _, err := Sum(empty); err == nil {
		t.Fatalf("空文件应返回错误")
	}
	if _, err := Sum(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Fatalf("缺失文件应返回错误")
	}
}
