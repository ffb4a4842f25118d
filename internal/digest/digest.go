// Package digest 计算用于重复检测的内容摘要。
//
// JPEG 的摘要刻意只覆盖压缩扫描数据：编辑工具、重新保存、旋转标记
// 只会改动 SOS 之前的元数据段，视觉相同的两份图片必须得到相同摘要。
package digest

import (
	"bufio"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// JPEG 标记：均以 0xFF 打头，第二字节区分类型。
const (
	markerPrefix = 0xFF
	markerSOI    = 0xD8 // start of image
	markerSOS    = 0xDA // start of scan
)

// Sum 返回文件内容的十六进制 MD5 摘要（128 位）。
//
// - .jpg/.jpeg（扩展名不区分大小写）：走段表游标，只对 SOS 及其后的
//   字节取摘要；结构解析失败（非 JPEG、段表截断等）回退为整文件摘要
// - 其他扩展名：整文件摘要
//
// path 必须指向存在且非空的文件：调用方已做过存在性校验，
// 此时文件缺失属于致命错误（不是“无结果”），直接返回 error。
func Sum(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if fi.Size() == 0 {
		return "", fmt.Errorf("digest：空文件不允许取摘要：%q", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".jpg" || ext == ".jpeg" {
		if d, err := jpegScanSum(path); err == nil {
			return d, nil
		}
		// 结构不合法：按普通文件处理。
	}
	return wholeFileSum(path)
}

// jpegScanSum 验证 SOI 后沿段表前进：每段是 2 字节标记 + 2 字节大端长度
// （长度含自身 2 字节），跳过 长度-2 字节；读到 SOS 标记即停止跳段，
// 对流中剩余的全部字节（压缩扫描数据）取摘要。
func jpegScanSum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var soi [2]byte
	if _, err := io.ReadFull(r, soi[:]); err != nil {
		return "", err
	}
	if soi[0] != markerPrefix || soi[1] != markerSOI {
		return "", fmt.Errorf("缺少 SOI 标记")
	}

	for {
		var mk [2]byte
		if _, err := io.ReadFull(r, mk[:]); err != nil {
			return "", err
		}
		if mk[0] != markerPrefix {
			return "", fmt.Errorf("段表游标失步：期望 0xFF，读到 0x%02X", mk[0])
		}
		if mk[1] == markerSOS {
			break
		}

		var ln [2]byte
		if _, err := io.ReadFull(r, ln[:]); err != nil {
			return "", err
		}
		n := int64(binary.BigEndian.Uint16(ln[:]))
		if n < 2 {
			return "", fmt.Errorf("非法段长度：%d", n)
		}
		if _, err := io.CopyN(io.Discard, r, n-2); err != nil {
			return "", err
		}
	}

	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func wholeFileSum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
