package ui

import (
	"fmt"

	"netmon/model"
)

// 格式化字节单位 (B -> KB -> MB)
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// 32 位计数器溢出时可能出现负数，原样显示
func formatCount(c model.ByteCount) string {
	if c < 0 {
		return fmt.Sprintf("%d B", c.Int64())
	}
	return formatBytes(uint64(c))
}

func formatRate(r model.ByteRate) string {
	return formatBytes(uint64(r.Float64())) + "/s"
}
