package common

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

var nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// ShortUUID 取 UUID 前 n 個字元
func ShortUUID(n int) string {
	id := strings.ReplaceAll(GenerateUUID(), "-", "")
	if n <= 0 || n > len(id) {
		return id
	}
	return id[:n]
}

// Slugify 轉為小寫並以 '-' 連接的識別字串
func Slugify(s string) string {
	slug := nonSlugPattern.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

// CapitalizeFirst 首字母大寫
func CapitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// FirstNonEmpty 回傳第一個非空白字串
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
