package db

import "time"

// PostAnalytics 汇总文章维度的浏览、曝光与点击数据，每篇文章一行。
type PostAnalytics struct {
	ID               uint    `gorm:"primaryKey"`
	PostID           uint    `gorm:"uniqueIndex;not null"`
	Views            uint64  `gorm:"not null;default:0"`
	Impressions      uint64  `gorm:"not null;default:0"`
	Clicks           uint64  `gorm:"not null;default:0"`
	ClickThroughRate float64 `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (PostAnalytics) TableName() string {
	return "post_analytics"
}

// PostView 记录已计入浏览量的访客地址，(post_id, client_address) 唯一。
type PostView struct {
	ID            uint   `gorm:"primaryKey"`
	PostID        uint   `gorm:"uniqueIndex:idx_post_views_post_client;not null"`
	ClientAddress string `gorm:"size:64;uniqueIndex:idx_post_views_post_client;not null"`
	CreatedAt     time.Time
}

// TableName 指定自定义表名。
func (PostView) TableName() string {
	return "post_views"
}

// ClickThroughRate returns clicks / impressions * 100, or 0 without impressions.
func ClickThroughRate(clicks, impressions uint64) float64 {
	if impressions == 0 {
		return 0
	}
	return float64(clicks) / float64(impressions) * 100
}
