package main

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/urfave/cli/v2"

	"github.com/aspectrt/aspectrt/internal/log"
)

var doctorCommand = &cli.Command{
	Name:  "doctor",
	Usage: "report weaverctl's own process resource usage, for sanity-checking a long-running boot",
	Action: func(c *cli.Context) error {
		proc, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			return fmt.Errorf("doctor: %w", err)
		}

		cpuPercent, err := proc.CPUPercent()
		if err != nil {
			return fmt.Errorf("doctor: cpu percent: %w", err)
		}
		memInfo, err := proc.MemoryInfo()
		if err != nil {
			return fmt.Errorf("doctor: memory info: %w", err)
		}
		numThreads, err := proc.NumThreads()
		if err != nil {
			return fmt.Errorf("doctor: num threads: %w", err)
		}
		openFiles, err := proc.OpenFiles()
		if err != nil {
			return fmt.Errorf("doctor: open files: %w", err)
		}

		fmt.Fprintf(c.App.Writer, "pid=%d cpu=%.2f%% rss=%dKiB threads=%d open_files=%d\n",
			proc.Pid, cpuPercent, memInfo.RSS/1024, numThreads, len(openFiles))

		counts := log.Counts()
		fmt.Fprintf(c.App.Writer, "log lines: error=%d warn=%d info=%d debug=%d trace=%d\n",
			counts[log.LevelError], counts[log.LevelWarn], counts[log.LevelInfo], counts[log.LevelDebug], counts[log.LevelTrace])
		return nil
	},
}
