// Package config 负责 CLI 参数与可选配置文件的合并和校验。
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/MediaSort/internal/domain"
)

// 错误码与报告条目的 error_code 是同一套（domain 是唯一的定义处）。
const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeMissingSource 表示源目录不存在或不是目录。
	ErrCodeMissingSource = domain.ErrCodeMissingSource
	// ErrCodeMissingDest 表示目标根目录不存在或不是目录。
	ErrCodeMissingDest = domain.ErrCodeMissingDest
)

// CLIArgs 是 CLI 暴露的两项入口：源目录与目标根目录。
type CLIArgs struct {
	Source string
	Dest   string
}

// FileConfig 对应 <source>/mediasort.json 的解析结构。
// 该文件整体可选；存在但无法解析视为错误。
type FileConfig struct {
	ExcludeDirs []string `json:"exclude_dirs"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费）。
type EffectiveConfig struct {
	// Source/Dest 均为 clean + absolute。
	Source string
	Dest   string

	// ExcludeDirs 是相对 Source 的目录路径，命中者整棵子树跳过。
	ExcludeDirs []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeMissingSource:
		return fmt.Sprintf("%s：源目录 %q 不存在或不是目录", e.Code, e.Path)
	case ErrCodeMissingDest:
		return fmt.Sprintf("%s：目标根目录 %q 不存在或不是目录", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 校验两个目录并读取 <source>/mediasort.json（可选），
// 合并为最终配置。任何校验失败都发生在改动文件系统之前。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	src := absCleanFrom(cwdAbs, cli.Source)
	if !isDir(src) {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingSource, Path: src}
	}
	dest := absCleanFrom(cwdAbs, cli.Dest)
	if !isDir(dest) {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingDest, Path: dest}
	}

	cfgPath := filepath.Join(src, domain.ConfigFileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	excludes := make([]string, 0, len(fc.ExcludeDirs))
	for _, d := range fc.ExcludeDirs {
		d = filepath.Clean(strings.TrimSpace(d))
		if d == "" || d == "." {
			continue
		}
		if filepath.IsAbs(d) || strings.HasPrefix(d, "..") {
			return EffectiveConfig{}, &Error{
				Code: ErrCodeInvalid, Path: cfgPath,
				Err: fmt.Errorf("exclude_dirs 必须是源目录内的相对路径，实际是 %q", d),
			}
		}
		excludes = append(excludes, d)
	}

	return EffectiveConfig{
		Source:      src,
		Dest:        dest,
		ExcludeDirs: excludes,
	}, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
