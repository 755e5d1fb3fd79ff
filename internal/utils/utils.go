// Package utils содержит утилитарные функции, используемые в разных частях приложения
package utils

import (
	"fmt"
	"time"
)

// FormatDuration форматирует time.Duration в MM:SS, а для длинных треков в HH:MM:SS
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatPosition форматирует позицию в виде "текущая / общая"
func FormatPosition(current, total time.Duration) string {
	return FormatDuration(current) + " / " + FormatDuration(total)
}

// TruncateString обрезает строку до указанного числа символов, добавляя "…" если строка длиннее
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:max(maxLen, 0)])
	}
	return string(runes[:maxLen-1]) + "…"
}
