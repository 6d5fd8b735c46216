// Package video 食譜教學影片搜尋與備援
package video

import (
	"context"
	"regexp"
)

// Info 影片資訊
type Info struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ChannelName  string `json:"channelName"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Duration     string `json:"duration,omitempty"`
	Views        int64  `json:"views,omitempty"`
}

// Candidate 搜尋後端回傳的候選影片
type Candidate struct {
	ID            string
	Title         string
	Channel       string
	ThumbnailURL  string
	LengthText    string
	LengthSeconds int
	Views         int64
	Published     string
}

// Backend 影片搜尋後端
type Backend interface {
	// Search 依查詢字串搜尋，無結果時回傳空切片
	Search(ctx context.Context, query string) ([]Candidate, error)

	// Enabled 是否具備可用設定
	Enabled() bool

	// Name 後端名稱
	Name() string
}

var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ValidID 檢查影片 ID 格式
func ValidID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// ThumbnailURL 預設縮圖網址
func ThumbnailURL(id string) string {
	return "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"
}
