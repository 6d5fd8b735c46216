package video

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FormatDuration 秒數轉為 M:SS 或 H:MM:SS，0 回傳 Unknown
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "Unknown"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseDuration 解析 H:MM:SS、M:SS 或純秒數，無法解析時回傳 0
func ParseDuration(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return 0
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

var viewNumberPattern = regexp.MustCompile(`[\d.,]+\s*[KMB]?`)

// ParseViewCount 解析 "1,234 views"、"763K views"、"1.2M views"
func ParseViewCount(text string) int64 {
	if !strings.Contains(strings.ToLower(text), "view") {
		return 0
	}

	match := viewNumberPattern.FindString(text)
	if match == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(match, "K"):
		multiplier = 1e3
	case strings.HasSuffix(match, "M"):
		multiplier = 1e6
	case strings.HasSuffix(match, "B"):
		multiplier = 1e9
	}

	numeric := strings.TrimRight(match, "KMB ")
	numeric = strings.ReplaceAll(numeric, ",", "")
	n, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0
	}
	return int64(n*multiplier + 0.5)
}
