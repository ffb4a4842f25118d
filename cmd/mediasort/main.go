package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/John-Robertt/MediaSort/internal/app/run"
	"github.com/John-Robertt/MediaSort/internal/config"
	"github.com/John-Robertt/MediaSort/internal/domain"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{Source: ra.Source, Dest: ra.Dest})
	if err != nil {
		// 配置/前置校验失败发生在任何文件系统改动之前：出一份只含
		// 合成失败条目的报告，保持 stdout 契约一致。
		emitReport(reportForConfigError(ra, err))
		return 2
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(eff, nil, obs)

	emitReport(rr)
	if rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

type runArgs struct {
	Source string
	Dest   string
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		}
		switch {
		case ra.Source == "":
			ra.Source = a
		case ra.Dest == "":
			ra.Dest = a
		default:
			return runArgs{}, fmt.Errorf("多余的参数：%q", a)
		}
	}

	if strings.TrimSpace(ra.Source) == "" {
		return runArgs{}, fmt.Errorf("缺少 <source> 参数")
	}
	if strings.TrimSpace(ra.Dest) == "" {
		return runArgs{}, fmt.Errorf("缺少 <dest> 参数")
	}
	return ra, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  mediasort run <source> <dest>

命令：
  run    把 <source> 下的照片/视频按拍摄月份整理到 <dest>/YYYY-MM/

使用 "mediasort run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  mediasort run <source> <dest>

参数：
  source      待整理的源目录（可在 <source>/mediasort.json 里配置 exclude_dirs）
  dest        目标根目录；文件按拍摄月份落到 <dest>/YYYY-MM/，日期未知落到 <dest>/unknown-date/
  -h, --help  显示帮助

行为：
  - 同一桶内与目标已有内容重复的源文件会被删除而不是再复制一份
  - 源内的近重复（"a.jpg" 与 "a (1).jpg" 同拍摄时间）只保留较大的一个
  - 非媒体文件原地不动
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：moved=%d duplicates=%d rejected=%d discarded=%d skipped=%d failed=%d\n",
			rr.Summary.Moved, rr.Summary.Duplicates, rr.Summary.Rejected,
			rr.Summary.Discarded, rr.Summary.Skipped, rr.Summary.Failed,
		)
		if rr.Summary.Failed > 0 {
			for _, it := range rr.Items {
				if it.Status != domain.StatusFailed {
					continue
				}
				key := it.Src
				if key == "" {
					key = "<run>"
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：moved=%d duplicates=%d rejected=%d discarded=%d skipped=%d failed=%d\n",
		rr.Summary.Moved, rr.Summary.Duplicates, rr.Summary.Rejected,
		rr.Summary.Discarded, rr.Summary.Skipped, rr.Summary.Failed,
	)
}

func reportForConfigError(ra runArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Source:     ra.Source,
		Dest:       ra.Dest,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.FileResult{{
			Src:       "",
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
