package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"netmon/logger"
	"netmon/monitor"
)

const clearScreen = "\x1b[2J\x1b[H"

// WritePlain 以纯文本输出一份报表，每行一个进程
func WritePlain(w io.Writer, report *monitor.Report) error {
	if _, err := fmt.Fprintf(w, "%-8s | %-16s | %-12s | %-12s | %-10s | %-10s\n",
		"pid", "name", "sent/s", "received/s", "total sent", "total recv"); err != nil {
		return err
	}
	for _, r := range report.Rows {
		if _, err := fmt.Fprintf(w, "%-8d | %-16s | %-12s | %-12s | %-10s | %-10s\n",
			r.Pid, r.Name,
			formatRate(r.TxRate), formatRate(r.RxRate),
			formatCount(r.TxTotal), formatCount(r.RxTotal)); err != nil {
			return err
		}
	}
	return nil
}

// RunPlain 不使用 TUI，每个 tick 清屏后重新输出
func RunPlain(ctx context.Context, w io.Writer, interval time.Duration, tick TickFunc) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	now := time.Now()
	for {
		report, err := tick(now)
		if err != nil {
			logger.Error("tick failed", "error", err)
		} else {
			if _, err := io.WriteString(w, clearScreen); err != nil {
				return err
			}
			if err := WritePlain(w, report); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case now = <-ticker.C:
		}
	}
}
