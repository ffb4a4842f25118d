package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"

	"github.com/John-Robertt/MediaSort/internal/domain"
)

// Entry 是扫描得到的一个候选文件（此阶段只 stat，不做日期求解）。
type Entry struct {
	AbsPath string
	RelPath string
	Size    int64
}

// Result 把源树一分为三：待分类的媒体文件、禁移扩展名（直接删除）、
// 其余非媒体文件（不动，仅记账）。
type Result struct {
	Files    []Entry
	Discards []Entry
	Others   []Entry
}

// Source 扫描 src 下的全部文件，并应用目录排除规则。
//
// 规则（硬约束）：
// - 永久排除：目标目录 dest（当它嵌套在 src 内时）与 <src>/mediasort.json
// - excludeDirs：来自配置文件，均视为相对 src 的路径（绝对路径按绝对处理）
//
// 除“扩展名未知需要嗅探头部 261 字节”外，扫描阶段不读文件内容。
func Source(src, dest string, excludeDirs []string) (Result, error) {
	src = filepath.Clean(src)
	excluded := buildExcluded(src, dest, excludeDirs)

	var res Result
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
		if isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()
		// 配置文件永久排除：它的扩展名命中禁移集合，但绝不能被当作
		// 元数据 sidecar 删掉。
		if name == domain.ConfigFileName && filepath.Dir(path) == src {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		e := Entry{AbsPath: path, RelPath: rel, Size: info.Size()}
		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case domain.IsDiscardExt(ext):
			res.Discards = append(res.Discards, e)
		case isMediaExt(ext):
			res.Files = append(res.Files, e)
		case e.Size > 0 && sniffMedia(path):
			res.Files = append(res.Files, e)
		default:
			res.Others = append(res.Others, e)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sortEntries(res.Files)
	sortEntries(res.Discards)
	sortEntries(res.Others)
	return res, nil
}

func sortEntries(s []Entry) {
	sort.Slice(s, func(i, j int) bool { return s[i].RelPath < s[j].RelPath })
}

// 已知媒体扩展名（照片 + 视频）。
var mediaExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".heic": {}, ".hif": {}, ".dng": {}, ".arw": {},
	".cr2": {}, ".nef": {}, ".raf": {}, ".bmp": {},
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {},
	".m4v": {}, ".3gp": {}, ".wmv": {},
}

func isMediaExt(ext string) bool {
	_, ok := mediaExts[ext]
	return ok
}

// sniffMedia 对扩展名不认识的文件读头部魔数判断是否图片/视频，
// 照顾被剥掉扩展名的相机文件。读失败一律按非媒体处理。
func sniffMedia(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 261)
	n, _ := f.Read(buf)
	if n == 0 {
		return false
	}
	buf = buf[:n]
	return filetype.IsImage(buf) || filetype.IsVideo(buf)
}

func buildExcluded(src, dest string, excludeDirs []string) []string {
	excluded := make([]string, 0, 1+len(excludeDirs))

	// 目标目录若嵌在源内，必须整体排除：不能把已落位的文件再扫一遍。
	dest = filepath.Clean(strings.TrimSpace(dest))
	if dest != "" && isUnder(dest, src) {
		excluded = append(excluded, dest)
	}

	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 src。
		excluded = append(excluded, filepath.Clean(filepath.Join(src, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
